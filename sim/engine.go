// sim/engine.go
package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

// Unit names used in counters, traces and logs.
const (
	UnitWell      = "well"
	UnitTreatment = "treatment"
	UnitTransfer  = "transfer"
)

// Backwash schedule: C loses a fixed volume and treatment is forced off.
const (
	nightBackwashVolume = 5.0 // hours 0 and 1
	noonBackwashVolume  = 8.0 // hour 12
)

// backwashVolume returns the volume removed from C at the given hour of day, or 0.
func backwashVolume(hourOfDay int) float64 {
	switch hourOfDay {
	case 0, 1:
		return nightBackwashVolume
	case 12:
		return noonBackwashVolume
	}
	return 0
}

// ControlState is a snapshot of the three units and the transfer interlock.
type ControlState struct {
	WellOn        bool `json:"well_on"`
	TreatmentOn   bool `json:"treatment_on"`
	TransferOn    bool `json:"transfer_on"`
	TransferArmed bool `json:"transfer_armed"`
}

// HourReport describes what the stages of one hour decided and moved. Volumes in m³.
type HourReport struct {
	Hour      int
	HourOfDay int

	Consumed    float64 // drawn from Principal
	UnmetDemand float64 // consumption lost because Principal ran dry

	WellInflow       float64
	TreatmentOutflow float64
	DeliveredB       float64
	DeliveredC       float64
	Backwash         float64 // removed from C after the floor clamp
	Pumped           float64 // moved from B to Principal

	Blockage bool
}

// Stage is one named step of the hourly pipeline. Stages run in slice order and each one
// reads the quantities decided by the stages before it.
type Stage struct {
	Name  string
	Apply func(e *Engine, r *HourReport)
}

// Stages is the fixed order of an hourly step.
var Stages = []Stage{
	{Name: "consumption", Apply: (*Engine).consume},
	{Name: "well", Apply: (*Engine).runWell},
	{Name: "treatment", Apply: (*Engine).runTreatment},
	{Name: "backwash", Apply: (*Engine).backwash},
	{Name: "balance", Apply: (*Engine).balance},
	{Name: "transfer", Apply: (*Engine).runTransfer},
}

// Engine advances the reservoirs and units one hour at a time. It assumes a validated
// configuration; construct it through NewSimulator unless a test needs direct access.
type Engine struct {
	Config SimulationConfig
	Tanks  Tanks

	Well      *FloatSwitch
	Treatment *FloatSwitch
	Transfer  *FloatSwitch
	// TransferArmed is the interlock latch. It trips on a starvation stop and resets only
	// when B is back at BArm.
	TransferArmed bool

	Metrics *Metrics
	Trace   *trace.SimulationTrace

	wellBand      Band
	treatmentBand Band
}

// NewEngine builds an engine at the configured initial levels with every unit off and the
// transfer pump armed. tr may be nil.
func NewEngine(cfg SimulationConfig, metrics *Metrics, tr *trace.SimulationTrace) *Engine {
	levels := cfg.InitialState()
	return &Engine{
		Config: cfg,
		Tanks: Tanks{
			A:         NewReservoir("A", levels.A, 0, cfg.WellOff),
			B:         NewReservoir("B", levels.B, 0, cfg.BArm),
			C:         NewReservoir("C", levels.C, cfg.CMin, cfg.CMax),
			Principal: NewReservoir("Principal", levels.Principal, 0, PrincipalCapacity),
		},
		Well:          NewFloatSwitch(UnitWell),
		Treatment:     NewFloatSwitch(UnitTreatment),
		Transfer:      NewFloatSwitch(UnitTransfer),
		TransferArmed: true,
		Metrics:       metrics,
		Trace:         tr,
		wellBand:      Band{Start: cfg.WellOn, Stop: cfg.WellOff, Mode: StartLow},
		treatmentBand: Band{Start: cfg.TreatOn, Stop: cfg.TreatOff, Mode: StartHigh},
	}
}

// ControlState returns the current unit and interlock states.
func (e *Engine) ControlState() ControlState {
	return ControlState{
		WellOn:        e.Well.Active(),
		TreatmentOn:   e.Treatment.Active(),
		TransferOn:    e.Transfer.Active(),
		TransferArmed: e.TransferArmed,
	}
}

// Step runs every stage for simulated hour t (t starts at 1).
func (e *Engine) Step(t int) HourReport {
	r := HourReport{Hour: t, HourOfDay: HourOfDay(t)}
	for _, stage := range Stages {
		stage.Apply(e, &r)
	}
	logrus.Debugf("[hour %04d] A=%.2f B=%.2f C=%.2f P=%.2f well=%v treat=%v transfer=%v armed=%v",
		t, e.Tanks.A.Level, e.Tanks.B.Level, e.Tanks.C.Level, e.Tanks.Principal.Level,
		e.Well.Active(), e.Treatment.Active(), e.Transfer.Active(), e.TransferArmed)
	return r
}

// consume draws the hour's demand from Principal. A deficit is lost, not carried over.
func (e *Engine) consume(r *HourReport) {
	p := e.Tanks.Principal
	demand := ConsumptionRate(r.HourOfDay)
	p.Level -= demand
	r.UnmetDemand = p.ClampFloor()
	r.Consumed = demand - r.UnmetDemand
	e.Metrics.TotalConsumed += r.Consumed
	e.Metrics.UnmetDemand += r.UnmetDemand
}

// runWell evaluates the well float on A (stop first) and decides the hour's inflow.
func (e *Engine) runWell(r *HourReport) {
	a := e.Tanks.A.Level
	started, stopped := e.Well.Evaluate(a, e.wellBand, true)
	e.recordSwitch(r.Hour, UnitWell, a, started, stopped)
	if e.Well.Active() {
		r.WellInflow = e.Config.FlowWell
		e.Metrics.Well.HoursRunning++
	}
}

// runTreatment evaluates the treatment float on A (stop first), then routes the outflow
// to whichever of B and C is below its cap. An even split is not rebalanced; any excess is
// clamped away in balance.
func (e *Engine) runTreatment(r *HourReport) {
	a := e.Tanks.A.Level
	b, c := e.Tanks.B, e.Tanks.C
	demand := b.BelowCap() || c.BelowCap()
	started, stopped := e.Treatment.Evaluate(a, e.treatmentBand, demand)
	e.recordSwitch(r.Hour, UnitTreatment, a, started, stopped)
	if !e.Treatment.Active() {
		return
	}
	r.TreatmentOutflow = e.Config.FlowTreatment
	e.Metrics.Treatment.HoursRunning++

	switch {
	case b.BelowCap() && c.BelowCap():
		r.DeliveredB = r.TreatmentOutflow / 2
		r.DeliveredC = r.TreatmentOutflow / 2
	case b.BelowCap():
		r.DeliveredB = r.TreatmentOutflow
	case c.BelowCap():
		r.DeliveredC = r.TreatmentOutflow
	}
	b.Level += r.DeliveredB
	c.Level += r.DeliveredC
}

// backwash applies the scheduled disturbance on C. It overrides the treatment decision for
// the rest of the hour without undoing the delivery already made.
func (e *Engine) backwash(r *HourReport) {
	c := e.Tanks.C
	if volume := backwashVolume(r.HourOfDay); volume > 0 {
		c.Level -= volume
		r.Backwash = volume
		if e.Treatment.ForceOff() {
			e.Trace.RecordTransition(trace.TransitionRecord{
				Hour: r.Hour, Unit: UnitTreatment, Kind: trace.TransitionForcedOff,
				Level: e.Tanks.A.Level, Reason: "backwash",
			})
		}
		logrus.Debugf("[hour %04d] backwash removes %.1f from C", r.Hour, volume)
	}
	r.Backwash -= c.ClampFloor()
}

// balance applies the A flows and enforces every tank's bounds.
func (e *Engine) balance(r *HourReport) {
	e.Tanks.A.Level += r.WellInflow - r.TreatmentOutflow
	for _, tank := range []*Reservoir{e.Tanks.A, e.Tanks.B, e.Tanks.C} {
		if spilled := tank.Clamp(); spilled > 0 {
			e.Metrics.AddSpill(tank.Name, spilled)
		}
	}
}

// runTransfer moves water from B to Principal under the arm latch. The start check runs
// before pumping; the stop checks run after it.
func (e *Engine) runTransfer(r *HourReport) {
	b, p := e.Tanks.B, e.Tanks.Principal
	cfg := e.Config

	startCond := p.Level <= TransferStartLevel && b.Level > cfg.BMin && e.TransferArmed
	if e.Transfer.Start(startCond) {
		e.Metrics.Transfer.Starts++
		e.Trace.RecordTransition(trace.TransitionRecord{
			Hour: r.Hour, Unit: UnitTransfer, Kind: trace.TransitionStart,
			Level: p.Level, Reason: "principal low",
		})
	}

	if e.Transfer.Active() {
		deficit := PrincipalCapacity - p.Level
		available := max(0, b.Level-cfg.BMin)
		r.Pumped = min(cfg.FlowTransfer, deficit, available)
		p.Level += r.Pumped
		b.Level -= r.Pumped
		if r.Pumped > 0 {
			e.Metrics.Transfer.HoursRunning++
		}

		full := p.Level >= PrincipalCapacity
		starved := b.Level <= cfg.BMin
		if full || starved {
			e.Transfer.Stop(true)
			reason := "principal full"
			if starved {
				reason = "source starved"
			}
			e.Trace.RecordTransition(trace.TransitionRecord{
				Hour: r.Hour, Unit: UnitTransfer, Kind: trace.TransitionStop,
				Level: b.Level, Reason: reason,
			})
		}
		if starved {
			r.Blockage = true
			e.TransferArmed = false
			record := trace.BlockageRecord{Hour: r.Hour, PrincipalLevel: p.Level}
			e.Metrics.Blockages = append(e.Metrics.Blockages, record)
			e.Trace.RecordBlockage(record)
			logrus.Infof("[hour %04d] transfer pump blocked: B=%.2f at floor, Principal=%.2f", r.Hour, b.Level, p.Level)
		}
	}

	if b.Level >= cfg.BArm && !e.TransferArmed {
		e.TransferArmed = true
		logrus.Debugf("[hour %04d] transfer pump re-armed: B=%.2f", r.Hour, b.Level)
	}
}

// recordSwitch updates start counters and the trace for a band-driven unit.
func (e *Engine) recordSwitch(hour int, unit string, level float64, started, stopped bool) {
	if stopped {
		e.Trace.RecordTransition(trace.TransitionRecord{
			Hour: hour, Unit: unit, Kind: trace.TransitionStop, Level: level, Reason: "stop threshold",
		})
	}
	if started {
		e.Metrics.Unit(unit).Starts++
		e.Trace.RecordTransition(trace.TransitionRecord{
			Hour: hour, Unit: unit, Kind: trace.TransitionStart, Level: level, Reason: "start threshold",
		})
	}
}
