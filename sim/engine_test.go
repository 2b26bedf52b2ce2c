package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

func TestStages_FixedOrder(t *testing.T) {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"consumption", "well", "treatment", "backwash", "balance", "transfer"}, names)
}

func TestBackwashVolume_Schedule(t *testing.T) {
	for h := 0; h < HoursPerDay; h++ {
		want := 0.0
		switch h {
		case 0, 1:
			want = 5
		case 12:
			want = 8
		}
		assert.Equal(t, want, backwashVolume(h), "hour %d", h)
	}
}

// Scenario A: full tanks, default config, first hour falls in the night backwash band.
func TestEngine_FirstHour_BackwashAndConsumption(t *testing.T) {
	// GIVEN the default configuration starting at A=13, B=10, C=15, Principal=100
	s := newTestSimulator(t, DefaultConfig())

	// WHEN hour 1 is simulated (hour of day 1)
	report := s.Step()

	// THEN C loses the 5 m³ backwash, Principal loses the 2.0 night consumption
	tanks := s.Engine.Tanks
	assert.Equal(t, 1, report.HourOfDay)
	assert.InDelta(t, 13.0, tanks.A.Level, levelTolerance)
	assert.InDelta(t, 10.0, tanks.B.Level, levelTolerance)
	assert.InDelta(t, 10.0, tanks.C.Level, levelTolerance)
	assert.InDelta(t, 98.0, tanks.Principal.Level, levelTolerance)
	assert.InDelta(t, 2.0, report.Consumed, levelTolerance)
	assert.InDelta(t, 5.0, report.Backwash, levelTolerance)

	// AND treatment is off, the transfer pump idle and armed
	assert.Equal(t, ControlState{TransferArmed: true}, s.Engine.ControlState())
}

func TestEngine_BackwashForcesTreatmentOffEvenAfterStart(t *testing.T) {
	// GIVEN treatment running with A high and C below cap at hour 12
	e := NewEngine(DefaultConfig(), NewMetrics(), trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelTransitions}))
	e.Tanks.C.Level = 12
	e.Treatment.Start(true)

	// WHEN the treatment and backwash stages run for hour 12
	r := &HourReport{Hour: 12, HourOfDay: 12}
	e.runTreatment(r)
	e.backwash(r)

	// THEN the delivery made this hour stands, the backwash is applied after it and the
	// unit is forced off
	assert.InDelta(t, 5.5, r.TreatmentOutflow, levelTolerance)
	assert.InDelta(t, 12+5.5-8, e.Tanks.C.Level, levelTolerance)
	assert.False(t, e.Treatment.Active())
	require.Len(t, e.Trace.Transitions, 1)
	assert.Equal(t, trace.TransitionForcedOff, e.Trace.Transitions[0].Kind)
	assert.Equal(t, "backwash", e.Trace.Transitions[0].Reason)
}

func TestEngine_BackwashClampsCToFloor(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.C.Level = 6

	r := &HourReport{Hour: 12, HourOfDay: 12}
	e.backwash(r)

	assert.Equal(t, 5.0, e.Tanks.C.Level)
	assert.InDelta(t, 1.0, r.Backwash, levelTolerance, "only the volume above the floor is removed")
}

func TestEngine_Treatment_EvenSplitWithoutRebalancing(t *testing.T) {
	// GIVEN B and C both below cap, B close to its cap
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.B.Level = 9
	e.Tanks.C.Level = 12

	// WHEN treatment starts and the balance runs
	r := &HourReport{Hour: 2, HourOfDay: 2}
	e.runTreatment(r)
	assert.InDelta(t, 2.75, r.DeliveredB, levelTolerance)
	assert.InDelta(t, 2.75, r.DeliveredC, levelTolerance)
	e.balance(r)

	// THEN B's excess is clamped away rather than redirected to C
	assert.Equal(t, 10.0, e.Tanks.B.Level)
	assert.InDelta(t, 14.75, e.Tanks.C.Level, levelTolerance)
	assert.InDelta(t, 1.75, e.Metrics.Spilled["B"], levelTolerance)
	assert.Equal(t, 1, e.Metrics.Treatment.Starts)
	assert.Equal(t, 1, e.Metrics.Treatment.HoursRunning)
}

func TestEngine_Treatment_FullOutflowToOnlyTankBelowCap(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.B.Level = 10 // full
	e.Tanks.C.Level = 12

	r := &HourReport{Hour: 2, HourOfDay: 2}
	e.runTreatment(r)

	assert.Equal(t, 0.0, r.DeliveredB)
	assert.InDelta(t, 5.5, r.DeliveredC, levelTolerance)
}

func TestEngine_Treatment_RunningWithNoDemandDeliversNothing(t *testing.T) {
	// GIVEN treatment already running, A inside its band, B and C full
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.A.Level = 8
	e.Treatment.Start(true)

	// WHEN the treatment stage runs
	r := &HourReport{Hour: 2, HourOfDay: 2}
	e.runTreatment(r)

	// THEN the unit stays on and draws from A, but delivers to neither buffer
	assert.True(t, e.Treatment.Active())
	assert.InDelta(t, 5.5, r.TreatmentOutflow, levelTolerance)
	assert.Equal(t, 0.0, r.DeliveredB+r.DeliveredC)
}

func TestEngine_Treatment_DoesNotStartWithoutDemand(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	r := &HourReport{Hour: 2, HourOfDay: 2}
	e.runTreatment(r)
	assert.False(t, e.Treatment.Active())
	assert.Equal(t, 0, e.Metrics.Treatment.Starts)
}

func TestEngine_Well_StartsAtLowLevelAndStopsAtHigh(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)

	e.Tanks.A.Level = 10
	r := &HourReport{Hour: 2}
	e.runWell(r)
	assert.True(t, e.Well.Active())
	assert.Equal(t, 10.0, r.WellInflow)

	e.Tanks.A.Level = 13
	r = &HourReport{Hour: 3}
	e.runWell(r)
	assert.False(t, e.Well.Active())
	assert.Equal(t, 0.0, r.WellInflow)

	assert.Equal(t, 1, e.Metrics.Well.Starts)
	assert.Equal(t, 1, e.Metrics.Well.HoursRunning)
}

func TestEngine_Consumption_DeficitIsLost(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.Principal.Level = 1.5

	r := &HourReport{Hour: 12, HourOfDay: 12} // 6.0 m³/h band
	e.consume(r)

	assert.Equal(t, 0.0, e.Tanks.Principal.Level)
	assert.InDelta(t, 1.5, r.Consumed, levelTolerance)
	assert.InDelta(t, 4.5, r.UnmetDemand, levelTolerance)
	assert.InDelta(t, 4.5, e.Metrics.UnmetDemand, levelTolerance)
}

func TestEngine_Transfer_NormalStopWhenPrincipalFull(t *testing.T) {
	// GIVEN plenty of water in B and a pump large enough to fill Principal in one hour
	cfg := DefaultConfig()
	cfg.BArm = 30
	cfg.FlowTransfer = 15
	e := NewEngine(cfg, NewMetrics(), nil)
	e.Tanks.B.Level = 30
	e.Tanks.Principal.Level = 90

	// WHEN the transfer stage runs
	r := &HourReport{Hour: 4, HourOfDay: 4}
	e.runTransfer(r)

	// THEN Principal is topped up, the pump stops gracefully and stays armed
	assert.InDelta(t, 10.0, r.Pumped, levelTolerance)
	assert.Equal(t, 100.0, e.Tanks.Principal.Level)
	assert.InDelta(t, 20.0, e.Tanks.B.Level, levelTolerance)
	assert.False(t, e.Transfer.Active())
	assert.True(t, e.TransferArmed)
	assert.False(t, r.Blockage)
	assert.Empty(t, e.Metrics.Blockages)
	assert.Equal(t, 1, e.Metrics.Transfer.Starts)
	assert.Equal(t, 1, e.Metrics.Transfer.HoursRunning)
}

func TestEngine_Transfer_DoesNotStartAbove90(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.Tanks.Principal.Level = 90.5

	e.runTransfer(&HourReport{Hour: 4})
	assert.False(t, e.Transfer.Active())
}

func TestEngine_Transfer_DisarmedPumpDoesNotStart(t *testing.T) {
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.TransferArmed = false
	e.Tanks.B.Level = 8
	e.Tanks.Principal.Level = 50

	e.runTransfer(&HourReport{Hour: 4})
	assert.False(t, e.Transfer.Active())
	assert.False(t, e.TransferArmed)
	assert.Equal(t, 0, e.Metrics.Transfer.Starts)
}

func TestEngine_Transfer_RearmsRegardlessOfPumpState(t *testing.T) {
	// GIVEN a disarmed, idle pump with Principal too full to start
	e := NewEngine(DefaultConfig(), NewMetrics(), nil)
	e.TransferArmed = false
	e.Tanks.B.Level = 10
	e.Tanks.Principal.Level = 95

	// WHEN the transfer stage runs
	e.runTransfer(&HourReport{Hour: 4})

	// THEN B at its arm level re-arms the latch without starting the pump
	assert.True(t, e.TransferArmed)
	assert.False(t, e.Transfer.Active())
}

// Scenario B: an oversized transfer pump drains B to its floor in one step.
func TestEngine_Blockage_OversizedPumpDrainsB(t *testing.T) {
	// GIVEN b_min=5, b_arm=10, flow_transfer=100, Principal=50, B=6
	s := newTestSimulator(t, blockageConfig())

	// WHEN hour 1 is simulated
	report := s.Step()

	// THEN the pump started, drained B to exactly its floor and tripped the interlock
	tanks := s.Engine.Tanks
	assert.Equal(t, 1, s.Metrics.Transfer.Starts)
	assert.Equal(t, 5.0, tanks.B.Level)
	assert.True(t, report.Blockage)
	assert.False(t, s.Engine.TransferArmed)
	assert.False(t, s.Engine.Transfer.Active())

	// AND the blockage is logged at hour 1 with the resulting Principal level
	require.Len(t, s.Metrics.Blockages, 1)
	assert.Equal(t, 1, s.Metrics.Blockages[0].Hour)
	assert.InDelta(t, tanks.Principal.Level, s.Metrics.Blockages[0].PrincipalLevel, levelTolerance)
	assert.InDelta(t, 53.0, s.Metrics.Blockages[0].PrincipalLevel, levelTolerance)
	assert.Equal(t, s.Metrics.Blockages, s.Trace.Blockages)
}

// Scenario C: after a blockage, treatment refills B and the latch re-arms on the exact hour
// B reaches b_arm.
func TestEngine_Rearm_OnExactHourBReachesArmLevel(t *testing.T) {
	// GIVEN the blockage of scenario B at hour 1
	s := newTestSimulator(t, blockageConfig())
	s.Step()
	require.False(t, s.Engine.TransferArmed)

	// WHEN hour 2 runs, treatment feeds B but not yet to its arm level
	s.Step()
	assert.InDelta(t, 7.75, s.Engine.Tanks.B.Level, levelTolerance)
	assert.False(t, s.Engine.TransferArmed, "latch must stay tripped below b_arm")
	assert.False(t, s.Engine.Transfer.Active(), "disarmed pump must not restart")

	// WHEN hour 3 runs, B reaches b_arm
	s.Step()
	assert.Equal(t, 10.0, s.Engine.Tanks.B.Level)
	assert.True(t, s.Engine.TransferArmed)
	assert.Len(t, s.Metrics.Blockages, 1)
}

func TestEngine_TransitionsTraced(t *testing.T) {
	s := newTestSimulator(t, blockageConfig())
	s.Step()

	summary := trace.Summarize(s.Trace)
	// hour 1: treatment start, treatment forced off by backwash, transfer start, transfer stop
	assert.Equal(t, 1, summary.StartsByUnit[UnitTreatment])
	assert.Equal(t, 1, summary.ForcedOffCount)
	assert.Equal(t, 1, summary.StartsByUnit[UnitTransfer])
	assert.Equal(t, 1, summary.StopsByUnit[UnitTransfer])
	assert.Equal(t, 1, summary.BlockageCount)
}
