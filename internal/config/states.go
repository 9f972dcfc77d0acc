package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pvcore/pointstore/internal/value"
)

// StateDefConfig is one code/name pair in a state group definition.
type StateDefConfig struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// StateGroupConfig is one named, ordered state group — spec.md §6.5's
// `states` (group refs) and `state` (definitions) keys collapsed into a
// single JSON document, since both always travel together in practice.
// Name "" defines the global fallback group.
type StateGroupConfig struct {
	Name   string           `json:"name"`
	States []StateDefConfig `json:"states"`
}

// LoadStateGroups parses a JSON array of StateGroupConfig from path.
func LoadStateGroups(path string) ([]StateGroupConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening state group definitions %q: %w", path, err)
	}
	defer f.Close()

	var groups []StateGroupConfig
	if err := json.NewDecoder(f).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decoding state group definitions %q: %w", path, err)
	}
	return groups, nil
}

// ToValueStates converts the config shape to the value.State slice
// stategroup.NewGroup consumes.
func (g StateGroupConfig) ToValueStates() []value.State {
	out := make([]value.State, len(g.States))
	for i, s := range g.States {
		out[i] = value.State{Code: s.Code, Name: s.Name}
	}
	return out
}
