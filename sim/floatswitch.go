package sim

// Hysteresis selects which side of a Band starts the device.
type Hysteresis int

const (
	// StartLow starts the device at or below Band.Start and stops it at or above Band.Stop.
	// Used by units that fill the tank they monitor (the well).
	StartLow Hysteresis = iota
	// StartHigh starts the device at or above Band.Start and stops it at or below Band.Stop.
	// Used by units that drain the tank they monitor (the treatment unit).
	StartHigh
)

// Band is a pair of float thresholds with a hysteresis direction.
type Band struct {
	Start float64
	Stop  float64
	Mode  Hysteresis
}

// StartReached reports whether level is in start territory.
func (b Band) StartReached(level float64) bool {
	if b.Mode == StartHigh {
		return level >= b.Start
	}
	return level <= b.Start
}

// StopReached reports whether level is in stop territory.
func (b Band) StopReached(level float64) bool {
	if b.Mode == StartHigh {
		return level <= b.Stop
	}
	return level >= b.Stop
}

// FloatSwitch is a hysteresis-controlled on/off device.
type FloatSwitch struct {
	Name   string
	active bool
}

// NewFloatSwitch returns an inactive switch.
func NewFloatSwitch(name string) *FloatSwitch {
	return &FloatSwitch{Name: name}
}

// Active reports whether the device is running.
func (f *FloatSwitch) Active() bool { return f.active }

// Start turns an inactive switch on when cond holds. Returns true on a start event.
func (f *FloatSwitch) Start(cond bool) bool {
	if f.active || !cond {
		return false
	}
	f.active = true
	return true
}

// Stop turns an active switch off when cond holds. Returns true on a stop event.
func (f *FloatSwitch) Stop(cond bool) bool {
	if !f.active || !cond {
		return false
	}
	f.active = false
	return true
}

// ForceOff turns the switch off regardless of its thresholds (e.g. during backwash).
// Returns true if the switch was running.
func (f *FloatSwitch) ForceOff() bool {
	return f.Stop(true)
}

// Evaluate applies the band to the monitored level, checking the stop condition before the
// start condition. extra is an additional start permissive; it never affects stopping.
// Returns (started, stopped) for this evaluation.
func (f *FloatSwitch) Evaluate(level float64, band Band, extra bool) (started, stopped bool) {
	stopped = f.Stop(band.StopReached(level))
	started = f.Start(band.StartReached(level) && extra)
	return started, stopped
}
