package trace

// TraceLevel controls the verbosity of transition tracing.
type TraceLevel string

const (
	// TraceLevelNone disables transition tracing. Blockages are still recorded.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTransitions captures every start, stop and forced stop of every unit.
	TraceLevelTransitions TraceLevel = "transitions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelTransitions: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects unit events during a run.
type SimulationTrace struct {
	Config      TraceConfig
	Transitions []TransitionRecord
	Blockages   []BlockageRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Transitions: make([]TransitionRecord, 0),
		Blockages:   make([]BlockageRecord, 0),
	}
}

// Enabled reports whether transitions are being recorded. Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelTransitions
}

// RecordTransition appends a transition record when tracing is enabled.
func (st *SimulationTrace) RecordTransition(record TransitionRecord) {
	if !st.Enabled() {
		return
	}
	st.Transitions = append(st.Transitions, record)
}

// RecordBlockage appends a blockage record. Blockages are recorded at every trace level.
func (st *SimulationTrace) RecordBlockage(record BlockageRecord) {
	if st == nil {
		return
	}
	st.Blockages = append(st.Blockages, record)
}
