package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture formats understood by DecodeFixture.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatOf picks the fixture format from a file extension. Anything that is
// not .json is read as YAML.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ReadFixture reads a snapshot from a YAML or JSON file.
func ReadFixture(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return DecodeFixture(data, FormatOf(path))
}

// DecodeFixture parses a snapshot. YAML fixtures use the models' yaml field
// names, JSON fixtures the JSON-LD ones.
func DecodeFixture(data []byte, format string) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, snap)
	case FormatYAML:
		err = yaml.Unmarshal(data, snap)
	default:
		return nil, fmt.Errorf("unknown fixture format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s fixture: %w", format, err)
	}

	for i, h := range snap.Hosts {
		if h == nil || h.ID == "" {
			return nil, fmt.Errorf("hosts[%d]: missing id", i)
		}
	}
	for i, c := range snap.Containers {
		if c == nil || c.ID == "" {
			return nil, fmt.Errorf("containers[%d]: missing id", i)
		}
	}
	for i, st := range snap.Stacks {
		if st == nil || st.ID == "" {
			return nil, fmt.Errorf("stacks[%d]: missing id", i)
		}
	}
	return snap, nil
}

// Seed saves every document of snap into s. Existing documents with the same
// id are replaced.
func Seed(s Store, snap *Snapshot) error {
	for _, h := range snap.Hosts {
		if err := s.SaveHost(h); err != nil {
			return fmt.Errorf("failed to save host %s: %w", h.ID, err)
		}
	}
	for _, c := range snap.Containers {
		if err := s.SaveContainer(c); err != nil {
			return fmt.Errorf("failed to save container %s: %w", c.ID, err)
		}
	}
	for _, st := range snap.Stacks {
		if err := s.SaveStack(st); err != nil {
			return fmt.Errorf("failed to save stack %s: %w", st.ID, err)
		}
	}
	return nil
}
