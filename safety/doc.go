// Package safety provides the shared types of the route-safety scoring engine.
//
// # Reading Guide
//
// Start with these files:
//   - types.go: incidents, route candidates, evaluations and time categories
//   - config.go: tunable parameters for every stage, loaded from YAML
//   - errors.go: the failure taxonomy surfaced to callers
//
// # Architecture
//
// The safety package holds data types only; the pipeline lives in sub-packages:
//   - safety/dataset/: incident datasets and the CSV source
//   - safety/spatial/: k-d tree radius queries over incident coordinates
//   - safety/hotspot/: DBSCAN clustering of incidents into hotspots
//   - safety/candidates/: candidate route generation from a routing provider
//   - safety/features/: feature vectors and the rule-based score
//   - safety/model/: the random-forest predictor and its training loop
//   - safety/store/: model snapshot persistence (gob file, SQLite)
//   - safety/osrm/: an OSRM-backed routing provider
//   - safety/trace/: per-request decision traces
//   - safety/engine/: the scorer and the service context that owns snapshots
//
// Control flow for one request is candidates -> features (per route) ->
// engine.Scorer (blends the rule score with the predictor) -> ranked list.
package safety
