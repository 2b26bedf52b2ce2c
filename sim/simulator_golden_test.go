package sim

import (
	"testing"

	"github.com/watersupply-sim/watersupply-sim/sim/internal/testutil"
)

// TestSimulator_GoldenDataset replays every reference run and compares counters, the
// first blockage and the final levels.
func TestSimulator_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tc.Config))
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			result, err := Run(*cfg)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			m, want := result.Metrics, tc.Metrics

			counters := []struct {
				name      string
				got, want int
			}{
				{"well_starts", m.Well.Starts, want.WellStarts},
				{"well_hours", m.Well.HoursRunning, want.WellHours},
				{"treatment_starts", m.Treatment.Starts, want.TreatmentStarts},
				{"treatment_hours", m.Treatment.HoursRunning, want.TreatmentHours},
				{"transfer_starts", m.Transfer.Starts, want.TransferStarts},
				{"transfer_hours", m.Transfer.HoursRunning, want.TransferHours},
				{"blockages", len(m.Blockages), want.Blockages},
			}
			for _, c := range counters {
				if c.got != c.want {
					t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
				}
			}

			if want.Blockages > 0 && len(m.Blockages) > 0 {
				if m.Blockages[0].Hour != want.FirstBlockageHour {
					t.Errorf("first blockage hour: got %d, want %d", m.Blockages[0].Hour, want.FirstBlockageHour)
				}
				testutil.AssertLevelEqual(t, "first blockage level", want.FirstBlockageLevel, m.Blockages[0].PrincipalLevel, levelTolerance)
			}
			testutil.AssertLevelEqual(t, "unmet_demand", want.UnmetDemand, m.UnmetDemand, levelTolerance)

			n := result.Series.Len() - 1
			got := [4]float64{result.Series.A[n], result.Series.B[n], result.Series.C[n], result.Series.Principal[n]}
			for i, name := range []string{"A", "B", "C", "Principal"} {
				testutil.AssertLevelEqual(t, "final "+name, want.FinalLevels[i], got[i], levelTolerance)
			}
		})
	}
}
