package trace

import "testing"

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"transitions", true},
		{"decisions", false},
		{"TRANSITIONS", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestRecordTransition_LevelNone_DropsTransitions(t *testing.T) {
	// GIVEN a trace with transitions disabled
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN a transition and a blockage are recorded
	st.RecordTransition(TransitionRecord{Hour: 1, Unit: "well", Kind: TransitionStart})
	st.RecordBlockage(BlockageRecord{Hour: 1, PrincipalLevel: 53})

	// THEN only the blockage is kept
	if len(st.Transitions) != 0 {
		t.Errorf("expected no transitions, got %d", len(st.Transitions))
	}
	if len(st.Blockages) != 1 {
		t.Fatalf("expected 1 blockage, got %d", len(st.Blockages))
	}
	if st.Blockages[0].PrincipalLevel != 53 {
		t.Errorf("expected principal level 53, got %f", st.Blockages[0].PrincipalLevel)
	}
}

func TestRecordTransition_LevelTransitions_KeepsOrder(t *testing.T) {
	// GIVEN a trace with transitions enabled
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})

	// WHEN transitions are recorded out of unit order
	st.RecordTransition(TransitionRecord{Hour: 2, Unit: "treatment", Kind: TransitionStart})
	st.RecordTransition(TransitionRecord{Hour: 2, Unit: "well", Kind: TransitionStart})
	st.RecordTransition(TransitionRecord{Hour: 3, Unit: "well", Kind: TransitionStop})

	// THEN they are kept in recording order
	if len(st.Transitions) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(st.Transitions))
	}
	if st.Transitions[0].Unit != "treatment" || st.Transitions[2].Kind != TransitionStop {
		t.Errorf("unexpected order: %+v", st.Transitions)
	}
}

func TestSimulationTrace_NilSafe(t *testing.T) {
	var st *SimulationTrace
	if st.Enabled() {
		t.Error("nil trace must not be enabled")
	}
	// must not panic
	st.RecordTransition(TransitionRecord{Hour: 1})
	st.RecordBlockage(BlockageRecord{Hour: 1})
}
