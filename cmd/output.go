package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/watersupply-sim/watersupply-sim/sim"
	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

// resultOutput is the JSON document written by --results-out and returned by the HTTP API.
type resultOutput struct {
	ID string `json:"id,omitempty"`
	*sim.Result
	Transitions []trace.TransitionRecord `json:"transitions,omitempty"`
}

func newResultOutput(id string, result *sim.Result) resultOutput {
	out := resultOutput{ID: id, Result: result}
	if result.Trace.Enabled() {
		out.Transitions = result.Trace.Transitions
	}
	return out
}

// printReport writes the counters, level statistics and (if traced) the transition summary.
func printReport(w io.Writer, result *sim.Result) {
	result.Metrics.Fprint(w, result.Config.HorizonHours)

	_, _ = fmt.Fprintln(w, "=== Level Statistics (m3) ===")
	_, _ = fmt.Fprintf(w, "%-10s %8s %8s %8s %8s %8s\n", "tank", "min", "p05", "mean", "p95", "max")
	for _, name := range []string{"A", "B", "C", "Principal"} {
		d := result.Statistics[name]
		_, _ = fmt.Fprintf(w, "%-10s %8.2f %8.2f %8.2f %8.2f %8.2f\n", name, d.Min, d.P05, d.Mean, d.P95, d.Max)
	}
	_, _ = fmt.Fprintf(w, "Hours with Principal <= %.0f: %d\n",
		sim.TransferStartLevel, sim.HoursAtOrBelow(result.Series.Principal, sim.TransferStartLevel))

	if result.Trace.Enabled() {
		summary := trace.Summarize(result.Trace)
		_, _ = fmt.Fprintln(w, "=== Transition Trace ===")
		_, _ = fmt.Fprintf(w, "Transitions          : %d (forced off: %d)\n", summary.TotalTransitions, summary.ForcedOffCount)
		for _, unit := range []string{sim.UnitWell, sim.UnitTreatment, sim.UnitTransfer} {
			_, _ = fmt.Fprintf(w, "  %-10s starts=%d stops=%d\n", unit, summary.StartsByUnit[unit], summary.StopsByUnit[unit])
		}
	}
}

// writeSeriesCSV writes the time series to path.
func writeSeriesCSV(path string, ts *sim.TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := ts.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeResultJSON writes the full result as indented JSON to path.
func writeResultJSON(path, id string, result *sim.Result) error {
	data, err := json.MarshalIndent(newResultOutput(id, result), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
