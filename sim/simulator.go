// sim/simulator.go
package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

// Simulator owns all state of a single run: the engine, the time series and the counters.
// Nothing is shared between simulators, so independent runs may execute concurrently.
type Simulator struct {
	// Clock is the last completed hour (0 before the first step).
	Clock   int
	Horizon int
	Config  SimulationConfig
	Engine  *Engine
	Series  *TimeSeries
	Metrics *Metrics
	Trace   *trace.SimulationTrace
}

// NewSimulator validates cfg and builds a simulator at hour 0. Invalid configurations are
// rejected here, before any step runs.
func NewSimulator(cfg SimulationConfig, traceConfig trace.TraceConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !trace.IsValidTraceLevel(string(traceConfig.Level)) {
		return nil, fmt.Errorf("%w: unknown trace level %q", ErrInvalidConfiguration, traceConfig.Level)
	}
	metrics := NewMetrics()
	st := trace.NewSimulationTrace(traceConfig)
	s := &Simulator{
		Clock:   0,
		Horizon: cfg.HorizonHours,
		Config:  cfg,
		Engine:  NewEngine(cfg, metrics, st),
		Series:  NewTimeSeries(cfg.HorizonHours),
		Metrics: metrics,
		Trace:   st,
	}
	s.Series.Append(s.Engine.Tanks)
	return s, nil
}

// Done reports whether the horizon has been reached.
func (sim *Simulator) Done() bool {
	return sim.Clock >= sim.Horizon
}

// Step advances one hour and records the snapshot.
func (sim *Simulator) Step() HourReport {
	sim.Clock++
	report := sim.Engine.Step(sim.Clock)
	sim.Series.Append(sim.Engine.Tanks)
	return report
}

// Run simulates every remaining hour up to the horizon.
func (sim *Simulator) Run() {
	_ = sim.RunContext(context.Background())
}

// RunContext simulates up to the horizon, stopping early when ctx is done. The state
// reached so far stays valid; the returned error is ctx.Err().
func (sim *Simulator) RunContext(ctx context.Context) error {
	logrus.Infof("[hour %04d] Starting simulation, horizon=%dh", sim.Clock, sim.Horizon)
	for !sim.Done() {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("[hour %04d] Simulation cancelled: %v", sim.Clock, err)
			return err
		}
		sim.Step()
	}
	logrus.Infof("[hour %04d] Simulation ended, %d blockage(s)", sim.Clock, len(sim.Metrics.Blockages))
	return nil
}

// Result is the output of a finished run, consumed by presentation layers.
type Result struct {
	Config     SimulationConfig        `json:"config"`
	Series     *TimeSeries             `json:"series"`
	Metrics    *Metrics                `json:"metrics"`
	Statistics map[string]Distribution `json:"statistics"`
	Final      ControlState            `json:"final_state"`
	Trace      *trace.SimulationTrace  `json:"-"`
}

// Result packages the current state of the run.
func (sim *Simulator) Result() *Result {
	return &Result{
		Config:     sim.Config,
		Series:     sim.Series,
		Metrics:    sim.Metrics,
		Statistics: LevelStatistics(sim.Series),
		Final:      sim.Engine.ControlState(),
		Trace:      sim.Trace,
	}
}

// Run validates cfg, simulates the full horizon and returns the result. The output is a
// pure function of cfg.
func Run(cfg SimulationConfig) (*Result, error) {
	return RunContext(context.Background(), cfg, trace.TraceConfig{Level: trace.TraceLevelNone})
}

// RunContext is Run with cancellation and transition tracing.
func RunContext(ctx context.Context, cfg SimulationConfig, traceConfig trace.TraceConfig) (*Result, error) {
	s, err := NewSimulator(cfg, traceConfig)
	if err != nil {
		return nil, err
	}
	if err := s.RunContext(ctx); err != nil {
		return nil, err
	}
	return s.Result(), nil
}
