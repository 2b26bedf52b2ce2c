package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

// levelTolerance absorbs float rounding in level assertions.
const levelTolerance = 1e-9

var traceNone = trace.TraceConfig{Level: trace.TraceLevelNone}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestSimulator builds a simulator with transition tracing, failing the test on error.
func newTestSimulator(t *testing.T, cfg SimulationConfig) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevelTransitions})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

// blockageConfig is the oversized-transfer setup: the pump can empty B to its floor in a
// single hour starting from Principal=50, B=6.
func blockageConfig() SimulationConfig {
	cfg := DefaultConfig()
	cfg.BMin = 5
	cfg.BArm = 10
	cfg.FlowTransfer = 100
	cfg.Initial = &InitialLevels{A: cfg.WellOff, B: 6, C: cfg.CMax, Principal: 50}
	return cfg
}
