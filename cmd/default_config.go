package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/watersupply-sim/watersupply-sim/sim"
)

// ScenarioFile represents the full structure of a sweep scenarios YAML.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ScenarioFile struct {
	Version   string               `yaml:"version"`
	Base      yaml.Node            `yaml:"base"`      // overrides applied to every scenario
	Scenarios map[string]yaml.Node `yaml:"scenarios"` // name -> overrides on top of base
}

// Scenario is a named, fully resolved simulation configuration.
type Scenario struct {
	Name   string
	Config sim.SimulationConfig
}

// loadScenarios parses a scenarios file. Each scenario starts from the defaults, then the
// base section, then its own fields; unknown fields anywhere are errors. The result is
// sorted by name.
func loadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios file: %w", err)
	}
	return parseScenarios(data)
}

func parseScenarios(data []byte) ([]Scenario, error) {
	var file ScenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing scenarios YAML: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenarios file defines no scenarios")
	}

	base := sim.DefaultConfig()
	if file.Base.Kind != 0 {
		if err := overlayNode(&base, &file.Base); err != nil {
			return nil, fmt.Errorf("base: %w", err)
		}
	}

	names := make([]string, 0, len(file.Scenarios))
	for name := range file.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	scenarios := make([]Scenario, 0, len(names))
	for _, name := range names {
		cfg := base
		if base.Initial != nil {
			initial := *base.Initial
			cfg.Initial = &initial
		}
		node := file.Scenarios[name]
		if err := overlayNode(&cfg, &node); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}
		scenarios = append(scenarios, Scenario{Name: name, Config: cfg})
	}
	return scenarios, nil
}

// overlayNode decodes a YAML node onto cfg with strict field checking. yaml.Node.Decode has
// no strict mode, so the node is re-encoded and run through a strict decoder.
func overlayNode(cfg *sim.SimulationConfig, node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}
