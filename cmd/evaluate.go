package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/dataset"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/engine"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/osrm"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/store"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/trace"
)

var (
	sourceCoord string // "lat,lon" of the trip origin
	destCoord   string // "lat,lon" of the trip destination
	timeOfDay   string // Morning, Afternoon, Evening or Night; empty uses the clock
	traceLevel  string // none or decisions; decisions prints a summary to stderr
)

// now is replaced in tests.
var now = time.Now

// EvaluateOutput is the JSON document written by `saferoute evaluate`.
type EvaluateOutput struct {
	Source       safety.Point             `json:"source"`
	Destination  safety.Point             `json:"destination"`
	TimeCategory safety.TimeCategory      `json:"time_category"`
	Routes       []safety.RouteEvaluation `json:"routes"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score candidate routes between two points, safest first",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		src, err := parsePoint(sourceCoord)
		if err != nil {
			logrus.Fatalf("Invalid --source: %v", err)
		}
		dst, err := parsePoint(destCoord)
		if err != nil {
			logrus.Fatalf("Invalid --destination: %v", err)
		}
		tc := resolveTimeCategory(timeOfDay)
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid --trace-level: %s", traceLevel)
		}
		level := trace.TraceLevel(traceLevel)
		if level == "" {
			level = trace.TraceLevelNone
		}

		if err := runEvaluate(cmd.Context(), cfg, src, dst, tc, level, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			logrus.Fatalf("Evaluation failed: %v", err)
		}
	},
}

// runEvaluate bootstraps a service from cfg and writes the ranked routes to
// out. At level decisions, traceOut receives a one-block decision summary.
func runEvaluate(ctx context.Context, cfg safety.Config, src, dst safety.Point, tc safety.TimeCategory,
	level trace.TraceLevel, out, traceOut io.Writer) error {
	svc, ms, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer ms.Close()
	svc.SetTraceLevel(level)

	results, et, err := svc.EvaluateRoutesTraced(ctx, src, dst, tc)
	if et.Enabled() {
		writeTraceSummary(traceOut, trace.Summarize(et))
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(EvaluateOutput{
		Source:       src,
		Destination:  dst,
		TimeCategory: tc,
		Routes:       results,
	})
}

// openService wires the CSV source, OSRM provider and predictor store, then
// bootstraps the dataset at cfg.Dataset.Path.
func openService(ctx context.Context, cfg safety.Config) (*engine.Service, store.ModelStore, error) {
	ms, err := store.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open model store: %w", err)
	}
	svc := engine.NewService(cfg, dataset.NewCSVSource(), osrm.NewClient(cfg.OSRM), ms)
	if err := svc.Bootstrap(ctx, cfg.Dataset.Path); err != nil {
		ms.Close()
		return nil, nil, err
	}
	return svc, ms, nil
}

func writeTraceSummary(w io.Writer, s *trace.EvaluationSummary) {
	fmt.Fprintln(w, "=== Evaluation Trace ===")
	fmt.Fprintf(w, "Max crimes per route: %d\n", s.MaxCrimesPerRoute)
	fmt.Fprintf(w, "Waypoints tried: %d (skipped %d)\n", s.WaypointsTried, s.WaypointsSkipped)
	fmt.Fprintf(w, "Candidates: %d scored, %d skipped\n", s.ScoredCount, s.SkippedCount)
	reasons := make([]string, 0, len(s.SkipReasons))
	for reason := range s.SkipReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", reason, s.SkipReasons[reason])
	}
	if s.ScoredCount > 0 {
		fmt.Fprintf(w, "Best route: %s (mean %.2f, spread %.2f)\n", s.BestRoute, s.MeanFinalScore, s.ScoreSpread)
	}
}

// parsePoint parses "lat,lon" in decimal degrees.
func parsePoint(s string) (safety.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return safety.Point{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return safety.Point{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return safety.Point{}, fmt.Errorf("longitude: %w", err)
	}
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		return safety.Point{}, fmt.Errorf("coordinates out of range: %f,%f", lat, lon)
	}
	return safety.Point{Lat: lat, Lon: lon}, nil
}

// resolveTimeCategory parses name, falling back to the local clock when it
// is empty. Unrecognized names pass through as TimeUnknown.
func resolveTimeCategory(name string) safety.TimeCategory {
	if name == "" {
		return safety.TimeCategoryAt(now())
	}
	tc := safety.ParseTimeCategory(name)
	if tc == safety.TimeUnknown {
		logrus.Warnf("Unknown time category %q; scoring without a time adjustment", name)
	}
	return tc
}

func init() {
	evaluateCmd.Flags().StringVar(&sourceCoord, "source", "", "Origin as \"lat,lon\"")
	evaluateCmd.Flags().StringVar(&destCoord, "destination", "", "Destination as \"lat,lon\"")
	evaluateCmd.Flags().StringVar(&timeOfDay, "time", "", "Time of day (Morning, Afternoon, Evening, Night); defaults to the current hour")
	evaluateCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions); decisions prints a summary to stderr")
	_ = evaluateCmd.MarkFlagRequired("source")
	_ = evaluateCmd.MarkFlagRequired("destination")
}
