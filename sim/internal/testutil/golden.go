// Package testutil provides shared test infrastructure for the water-supply simulator.
// It holds the golden run dataset and assertion helpers used by the sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one reference run. Config is a YAML overlay on the default
// configuration, in the same format as a --config file.
type GoldenTestCase struct {
	Name    string        `json:"name"`
	Config  string        `json:"config"`
	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected counters of a golden run.
type GoldenMetrics struct {
	// Exact match counters
	WellStarts      int `json:"well_starts"`
	WellHours       int `json:"well_hours"`
	TreatmentStarts int `json:"treatment_starts"`
	TreatmentHours  int `json:"treatment_hours"`
	TransferStarts  int `json:"transfer_starts"`
	TransferHours   int `json:"transfer_hours"`
	Blockages       int `json:"blockages"`

	// Zero when the run has no blockage
	FirstBlockageHour  int     `json:"first_blockage_hour"`
	FirstBlockageLevel float64 `json:"first_blockage_level"`

	UnmetDemand float64 `json:"unmet_demand"`

	// A, B, C, Principal after the last hour
	FinalLevels [4]float64 `json:"final_levels"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Tests) == 0 {
		t.Fatal("Golden dataset has no test cases")
	}

	return &dataset
}

// AssertLevelEqual compares two volumes with an absolute tolerance.
func AssertLevelEqual(t *testing.T, name string, want, got, tol float64) {
	t.Helper()
	if diff := math.Abs(want - got); diff > tol {
		t.Errorf("%s: got %v, want %v (diff=%v)", name, got, want, diff)
	}
}
