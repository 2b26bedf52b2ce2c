// Package trace provides event recording for the control units of a simulation run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// TransitionKind distinguishes how a unit changed state.
type TransitionKind string

const (
	// TransitionStart is an off→on transition caused by the unit's own float switch.
	TransitionStart TransitionKind = "start"
	// TransitionStop is an on→off transition caused by the unit's own float switch.
	TransitionStop TransitionKind = "stop"
	// TransitionForcedOff is an on→off transition imposed from outside the unit (backwash).
	TransitionForcedOff TransitionKind = "forced-off"
)

// TransitionRecord captures a single unit state change.
type TransitionRecord struct {
	Hour   int            `json:"hour"`
	Unit   string         `json:"unit"`
	Kind   TransitionKind `json:"kind"`
	Level  float64        `json:"level"` // monitored level when the transition fired
	Reason string         `json:"reason"`
}

// BlockageRecord captures a transfer-pump starvation stop: the pump drained its source
// tank to the floor and the interlock disarmed.
type BlockageRecord struct {
	Hour           int     `json:"hour"`
	PrincipalLevel float64 `json:"principal_level"`
}
