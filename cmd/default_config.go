package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// Environment overrides, applied after the YAML file and before flags.
const (
	envDataset     = "SAFEROUTE_DATASET"
	envStorePath   = "SAFEROUTE_MODEL_STORE"
	envStoreDriver = "SAFEROUTE_STORE_DRIVER"
	envOSRMURL     = "SAFEROUTE_OSRM_URL"
	envTrainSeed   = "SAFEROUTE_TRAINING_SEED"
)

// dotEnvFile is read when present; a missing file is not an error.
var dotEnvFile = ".env"

var errMissingDataset = errors.New("no dataset configured: set dataset.path, " + envDataset + " or --dataset")

// loadConfig returns DefaultConfig overlaid with the YAML file at path.
// Unknown keys are rejected. An empty path returns the defaults unchanged.
func loadConfig(path string) (safety.Config, error) {
	cfg := safety.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overlays SAFEROUTE_* variables onto cfg. Variables from the
// .env file never replace ones already set in the process environment.
func applyEnv(cfg *safety.Config) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	if v := os.Getenv(envDataset); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv(envStorePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(envStoreDriver); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv(envOSRMURL); v != "" {
		cfg.OSRM.BaseURL = v
	}
	if v := os.Getenv(envTrainSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", envTrainSeed, err)
		}
		cfg.Training.Seed = seed
	}
	return nil
}
