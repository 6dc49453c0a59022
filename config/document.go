// Package config defines the logger's configuration schema and its
// JSON/YAML (de)serialization, plus file-watch based hot reload. Schema
// only: loading a config file from a CLI or environment is explicitly
// out of scope (spec.md's "configuration file parsing as such").
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hesphoros/lumberhouse/corelog"
	"gopkg.in/yaml.v3"
)

// ManagerSpec configures the write pipeline: queue capacity and
// overflow behavior.
type ManagerSpec struct {
	QueueCapacity  int    `json:"queue_capacity" yaml:"queue_capacity"`
	OverflowPolicy string `json:"overflow_policy" yaml:"overflow_policy"` // "block" | "drop_oldest"
	ReportInterval int    `json:"report_interval" yaml:"report_interval"`
}

// OutputSpec describes one configured sink, in the same envelope shape
// filter.SerializedFilter uses: a type tag plus a type-specific config
// payload.
type OutputSpec struct {
	Name      string          `json:"name" yaml:"name"`
	Type      string          `json:"type" yaml:"type"` // "console" | "file"
	Enabled   bool            `json:"enabled" yaml:"enabled"`
	MinLevel  corelog.Level   `json:"min_level" yaml:"min_level"`
	Config    json.RawMessage `json:"config,omitempty" yaml:"config"`
	FilterRef string          `json:"filter_ref,omitempty" yaml:"filter_ref,omitempty"`
}

// GlobalSpec holds process-wide settings not tied to any one sink.
type GlobalSpec struct {
	MinLevel corelog.Level `json:"min_level" yaml:"min_level"`
	Version  int           `json:"version" yaml:"version"`
}

// Document is the full configuration schema from spec §4.6.
type Document struct {
	Manager ManagerSpec  `json:"manager" yaml:"manager"`
	Outputs []OutputSpec `json:"outputs" yaml:"outputs"`
	Global  GlobalSpec   `json:"global" yaml:"global"`
}

// Default returns a Document with conservative, always-valid defaults.
func Default() Document {
	return Document{
		Manager: ManagerSpec{QueueCapacity: 4096, OverflowPolicy: "block", ReportInterval: 100},
		Outputs: []OutputSpec{{Name: "console", Type: "console", Enabled: true}},
		Global:  GlobalSpec{MinLevel: corelog.Info, Version: 1},
	}
}

// LoadJSON reads and parses a JSON Document from path.
func LoadJSON(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return d, nil
}

// SaveJSON writes d to path as indented, canonical JSON.
func SaveJSON(path string, d Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadYAML reads and parses a YAML Document from path. Unknown fields
// are ignored (gopkg.in/yaml.v3 default, not KnownFields(true)),
// matching spec's "unknown optional fields are ignored."
func LoadYAML(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return d, nil
}

// SaveYAML writes d to path as YAML.
func SaveYAML(path string, d Document) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the document for internally-inconsistent settings the
// (de)serializers themselves can't catch (zero values are all valid
// JSON/YAML, but some are meaningless configuration).
func Validate(d Document) error {
	if d.Manager.QueueCapacity <= 0 {
		return fmt.Errorf("config: manager.queue_capacity must be positive")
	}
	switch d.Manager.OverflowPolicy {
	case "block", "drop_oldest":
	default:
		return fmt.Errorf("config: manager.overflow_policy must be \"block\" or \"drop_oldest\", got %q", d.Manager.OverflowPolicy)
	}
	seen := make(map[string]bool, len(d.Outputs))
	for _, o := range d.Outputs {
		if o.Name == "" {
			return fmt.Errorf("config: output entry missing name")
		}
		if seen[o.Name] {
			return fmt.Errorf("config: duplicate output name %q", o.Name)
		}
		seen[o.Name] = true
		switch o.Type {
		case "console", "file":
		default:
			return fmt.Errorf("config: output %q has unknown type %q", o.Name, o.Type)
		}
	}
	return nil
}
