package diagnostics

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarises one evaluation for regression tracking.
type Report struct {
	NumElems int           `yaml:"num_elems"`
	Strategy string        `yaml:"strategy"`
	Seed     uint64        `yaml:"seed"`
	Elapsed  time.Duration `yaml:"elapsed"`
	Before   Norms         `yaml:"before"`
	After    Norms         `yaml:"after"`
}

func WriteReport(path string, r Report) error {
	out, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func ReadReport(path string) (Report, error) {
	var r Report
	in, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("reading report: %w", err)
	}
	if err := yaml.Unmarshal(in, &r); err != nil {
		return r, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return r, nil
}
