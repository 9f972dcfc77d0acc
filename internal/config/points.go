package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplicateTargetConfig is one entry of a point's Replicates parameter: a
// named partner, the target point uuid its values are cloned to (morphed
// point reference), and whether the value should be converted in transit.
type ReplicateTargetConfig struct {
	Partner string `json:"partner"`
	Point   string `json:"point"`
	Convert bool   `json:"convert"`
}

// PointParams is the per-point parameter shape spec.md §6.5 names: Notify,
// Replicated, Replicates, States, Polator, PolatorTimeLimit, ArchiveTime,
// LifeTime, NullRemoves, Tag. Durations are plain integer seconds in the
// JSON document, matching the teacher's ExpiresIn convention rather than a
// string duration format.
type PointParams struct {
	UUID                string                  `json:"uuid"`
	Notify              bool                    `json:"notify"`
	Replicated          bool                    `json:"replicated"`
	Replicates          []ReplicateTargetConfig `json:"replicates,omitempty"`
	States              string                  `json:"states,omitempty"`
	Polator             string                  `json:"polator,omitempty"`
	PolatorTimeLimitSec int                     `json:"polatorTimeLimitSeconds,omitempty"`
	ArchiveTimeSec      int                     `json:"archiveTimeSeconds,omitempty"`
	LifeTimeSec         int                     `json:"lifeTimeSeconds,omitempty"`
	NullRemoves         bool                    `json:"nullRemoves,omitempty"`
	Tag                 string                  `json:"tag,omitempty"`
}

// PolatorTimeLimit returns the parameter's PolatorTimeLimitSec as a
// Duration.
func (p PointParams) PolatorTimeLimit() time.Duration {
	return time.Duration(p.PolatorTimeLimitSec) * time.Second
}

// ArchiveTime returns the parameter's ArchiveTimeSec as a Duration.
func (p PointParams) ArchiveTime() time.Duration {
	return time.Duration(p.ArchiveTimeSec) * time.Second
}

// LifeTime returns the parameter's LifeTimeSec as a Duration.
func (p PointParams) LifeTime() time.Duration {
	return time.Duration(p.LifeTimeSec) * time.Second
}

// LoadPoints parses a JSON array of PointParams from path. The metadata
// loader's storage technology is out of scope (spec.md's external-
// collaborator boundary); this only fixes the shape the loader must
// produce.
func LoadPoints(path string) ([]PointParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening point metadata %q: %w", path, err)
	}
	defer f.Close()

	var points []PointParams
	if err := json.NewDecoder(f).Decode(&points); err != nil {
		return nil, fmt.Errorf("decoding point metadata %q: %w", path, err)
	}
	return points, nil
}
