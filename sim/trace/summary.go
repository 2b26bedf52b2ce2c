package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions int
	StartsByUnit     map[string]int
	StopsByUnit      map[string]int // includes forced stops
	ForcedOffCount   int
	BlockageCount    int
	FirstBlockage    int // hour of the first blockage; 0 if none
	LastBlockage     int // hour of the last blockage; 0 if none
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		StartsByUnit: make(map[string]int),
		StopsByUnit:  make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalTransitions = len(st.Transitions)
	for _, tr := range st.Transitions {
		switch tr.Kind {
		case TransitionStart:
			summary.StartsByUnit[tr.Unit]++
		case TransitionStop:
			summary.StopsByUnit[tr.Unit]++
		case TransitionForcedOff:
			summary.StopsByUnit[tr.Unit]++
			summary.ForcedOffCount++
		}
	}

	summary.BlockageCount = len(st.Blockages)
	if len(st.Blockages) > 0 {
		summary.FirstBlockage = st.Blockages[0].Hour
		summary.LastBlockage = st.Blockages[len(st.Blockages)-1].Hour
	}
	return summary
}
