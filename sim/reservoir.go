package sim

import "fmt"

// Reservoir is a single tank with inclusive volume bounds (m³).
type Reservoir struct {
	Name  string
	Level float64
	Min   float64
	Max   float64
}

// NewReservoir returns a tank holding level within [floor, ceiling]. The level is not clamped.
func NewReservoir(name string, level, floor, ceiling float64) *Reservoir {
	return &Reservoir{Name: name, Level: level, Min: floor, Max: ceiling}
}

// BelowCap reports whether the tank can still accept water.
func (r *Reservoir) BelowCap() bool { return r.Level < r.Max }

// ClampFloor raises the level to Min. Returns the volume added (0 if none).
func (r *Reservoir) ClampFloor() float64 {
	if r.Level < r.Min {
		added := r.Min - r.Level
		r.Level = r.Min
		return added
	}
	return 0
}

// ClampCeiling lowers the level to Max. Returns the volume removed (0 if none).
func (r *Reservoir) ClampCeiling() float64 {
	if r.Level > r.Max {
		spilled := r.Level - r.Max
		r.Level = r.Max
		return spilled
	}
	return 0
}

// Clamp enforces both bounds. Returns the volume spilled over the ceiling.
func (r *Reservoir) Clamp() float64 {
	r.ClampFloor()
	return r.ClampCeiling()
}

// InBounds reports whether the level lies within [Min, Max].
func (r *Reservoir) InBounds() bool { return r.Level >= r.Min && r.Level <= r.Max }

func (r *Reservoir) String() string {
	return fmt.Sprintf("%s=%.2f[%.1f,%.1f]", r.Name, r.Level, r.Min, r.Max)
}

// Tanks groups the four reservoirs of the network.
type Tanks struct {
	A         *Reservoir // raw water
	B         *Reservoir // treated buffer feeding the transfer pump
	C         *Reservoir // treated buffer subject to backwash
	Principal *Reservoir // distribution tank
}

// All returns the tanks in A, B, C, Principal order.
func (t Tanks) All() []*Reservoir {
	return []*Reservoir{t.A, t.B, t.C, t.Principal}
}
