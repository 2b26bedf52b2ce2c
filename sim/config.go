package sim

import (
	"errors"
	"fmt"
	"math"
)

const (
	// HoursPerDay is the period of the consumption profile and backwash schedule.
	HoursPerDay = 24
	// PrincipalCapacity is the fixed ceiling of the Principal tank (m³).
	PrincipalCapacity = 100.0
	// TransferStartLevel is the Principal level at or below which the transfer pump may start.
	TransferStartLevel = 90.0
)

// ErrInvalidConfiguration is returned (wrapped) for any configuration rejected before a run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// SimulationConfig holds every tunable of a run. It is immutable once a Simulator is built.
type SimulationConfig struct {
	HorizonHours int `yaml:"horizon_hours" json:"horizon_hours"`

	FlowWell      float64 `yaml:"flow_well" json:"flow_well"`           // m³/h into A
	FlowTreatment float64 `yaml:"flow_treatment" json:"flow_treatment"` // m³/h out of A
	FlowTransfer  float64 `yaml:"flow_transfer" json:"flow_transfer"`   // m³/h from B to Principal

	WellOn   float64 `yaml:"well_on" json:"well_on"`     // well starts at A ≤ WellOn
	WellOff  float64 `yaml:"well_off" json:"well_off"`   // well stops at A ≥ WellOff; A ceiling
	TreatOff float64 `yaml:"treat_off" json:"treat_off"` // treatment stops at A ≤ TreatOff
	TreatOn  float64 `yaml:"treat_on" json:"treat_on"`   // treatment starts at A ≥ TreatOn
	BMin     float64 `yaml:"b_min" json:"b_min"`         // transfer source floor
	BArm     float64 `yaml:"b_arm" json:"b_arm"`         // re-arm level; B ceiling
	CMin     float64 `yaml:"c_min" json:"c_min"`         // C floor
	CMax     float64 `yaml:"c_max" json:"c_max"`         // C ceiling

	// Initial overrides the starting levels. Nil means A=WellOff, B=BArm, C=CMax, Principal=100.
	Initial *InitialLevels `yaml:"initial,omitempty" json:"initial,omitempty"`
}

// InitialLevels are the tank levels at hour 0.
type InitialLevels struct {
	A         float64 `yaml:"a" json:"a"`
	B         float64 `yaml:"b" json:"b"`
	C         float64 `yaml:"c" json:"c"`
	Principal float64 `yaml:"principal" json:"principal"`
}

// DefaultConfig returns the reference plant configuration.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		HorizonHours:  72,
		FlowWell:      10.0,
		FlowTreatment: 5.5,
		FlowTransfer:  7.5,
		WellOn:        10.0,
		WellOff:       13.0,
		TreatOff:      5.0,
		TreatOn:       6.0,
		BMin:          5.0,
		BArm:          10.0,
		CMin:          5.0,
		CMax:          15.0,
	}
}

// InitialState returns the configured starting levels, or the full-tank defaults.
func (c SimulationConfig) InitialState() InitialLevels {
	if c.Initial != nil {
		return *c.Initial
	}
	return InitialLevels{A: c.WellOff, B: c.BArm, C: c.CMax, Principal: PrincipalCapacity}
}

// Validate rejects configurations that cannot be simulated. All returned errors wrap
// ErrInvalidConfiguration.
func (c SimulationConfig) Validate() error {
	if c.HorizonHours < 1 {
		return fmt.Errorf("%w: horizon_hours must be >= 1, got %d", ErrInvalidConfiguration, c.HorizonHours)
	}
	flows := []struct {
		name string
		v    float64
	}{
		{"flow_well", c.FlowWell},
		{"flow_treatment", c.FlowTreatment},
		{"flow_transfer", c.FlowTransfer},
	}
	for _, f := range flows {
		if !isFinite(f.v) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidConfiguration, f.name, f.v)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidConfiguration, f.name, f.v)
		}
	}
	pairs := []struct {
		lowName, highName string
		low, high         float64
	}{
		{"well_on", "well_off", c.WellOn, c.WellOff},
		{"treat_off", "treat_on", c.TreatOff, c.TreatOn},
		{"b_min", "b_arm", c.BMin, c.BArm},
		{"c_min", "c_max", c.CMin, c.CMax},
	}
	for _, p := range pairs {
		if !isFinite(p.low) || !isFinite(p.high) {
			return fmt.Errorf("%w: %s and %s must be finite, got %g and %g",
				ErrInvalidConfiguration, p.lowName, p.highName, p.low, p.high)
		}
		if p.low < 0 || p.high < 0 {
			return fmt.Errorf("%w: %s and %s must be non-negative, got %g and %g",
				ErrInvalidConfiguration, p.lowName, p.highName, p.low, p.high)
		}
		if p.low > p.high {
			return fmt.Errorf("%w: %s (%g) must not exceed %s (%g)",
				ErrInvalidConfiguration, p.lowName, p.low, p.highName, p.high)
		}
	}
	if c.Initial != nil {
		lv := c.Initial
		levels := []struct {
			name      string
			v, lo, hi float64
		}{
			{"a", lv.A, 0, c.WellOff},
			{"b", lv.B, 0, c.BArm},
			{"c", lv.C, c.CMin, c.CMax},
			{"principal", lv.Principal, 0, PrincipalCapacity},
		}
		for _, l := range levels {
			if !isFinite(l.v) || l.v < l.lo || l.v > l.hi {
				return fmt.Errorf("%w: initial.%s=%g outside [%g, %g]",
					ErrInvalidConfiguration, l.name, l.v, l.lo, l.hi)
			}
		}
	}
	return nil
}

// isFinite reports whether v is neither NaN nor an infinity. NaN fails every ordered
// comparison, so bounds checks alone would let it through.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
