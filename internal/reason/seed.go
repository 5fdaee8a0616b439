package reason

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Reasons []Reason `yaml:"reasons"`
}

// DefaultSeed returns the six reasons a fresh catalog starts with
func DefaultSeed() ([]Reason, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeedFile reads a seed document from disk
func LoadSeedFile(path string) ([]Reason, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reason seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// LoadSeed parses a YAML seed document. Every reason needs an id and a
// name, and ids must be unique.
func LoadSeed(r io.Reader) ([]Reason, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode reason seed: %w", err)
	}

	seen := make(map[string]bool, len(doc.Reasons))
	for i, reason := range doc.Reasons {
		if reason.ID == "" {
			return nil, fmt.Errorf("reason %d: id is required", i)
		}
		if strings.TrimSpace(reason.Name) == "" {
			return nil, fmt.Errorf("reason %s: %w", reason.ID, ErrNameRequired)
		}
		if seen[reason.ID] {
			return nil, fmt.Errorf("reason %s: duplicate id", reason.ID)
		}
		seen[reason.ID] = true
	}

	return doc.Reasons, nil
}

// WriteSeed encodes reasons as a seed document LoadSeed accepts
func WriteSeed(w io.Writer, reasons []Reason) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seedFile{Reasons: reasons}); err != nil {
		return fmt.Errorf("failed to encode reason seed: %w", err)
	}
	return enc.Close()
}
