package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML simulation configuration. Fields absent from the file keep their
// DefaultConfig values; unknown fields are rejected so typos surface as errors.
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading simulation config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing simulation config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML bytes on top of DefaultConfig. It does not validate.
func ParseConfig(data []byte) (*SimulationConfig, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// YAML encodes the configuration, e.g. for archiving alongside a run.
func (c SimulationConfig) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding simulation config: %w", err)
	}
	return string(out), nil
}
