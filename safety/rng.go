package safety

import (
	"hash/fnv"
	"math/rand"
)

// RunKey is the master seed of a training run. Training with the same key and
// configuration rebuilds the same forest and proposes the same detours.
type RunKey int64

// NewRunKey wraps seed as a RunKey.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// Random stream names. Each consumer draws from its own stream so that adding
// draws in one place never shifts the values another place sees.
const (
	SubsystemTraining  = "training"  // synthetic training routes
	SubsystemHoldout   = "holdout"   // held-out evaluation routes
	SubsystemForest    = "forest"    // per-tree bootstrap seeds
	SubsystemWaypoints = "waypoints" // detour waypoints in the candidate builder
)

// PartitionedRNG hands out one seeded *rand.Rand per stream name. Stream
// seeds are the master seed mixed with an FNV-1a hash of the name.
// Not safe for concurrent use; hand each goroutine its own stream.
type PartitionedRNG struct {
	key     RunKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG returns an empty PartitionedRNG for key.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls return the same instance, continuing its sequence.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.seedFor(name)))
		p.streams[name] = rng
	}
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(p.key) ^ int64(h.Sum64())
}
