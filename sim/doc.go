// Package sim provides the hourly control-and-balance engine for the water-supply network.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - floatswitch.go: hysteresis float switch (start/stop thresholds) shared by all units
//   - reservoir.go: tank levels and the clamping arithmetic that keeps them in bounds
//   - engine.go: the ordered stages of one simulated hour
//   - simulator.go: the hour loop, time series and counters
//
// # Network
//
// The topology is fixed: an external well fills raw tank A, the treatment unit moves water
// from A into buffers B and C, and the transfer pump moves water from B into the Principal
// distribution tank, which is drained by the hourly consumption profile. Only thresholds,
// flow rates and initial levels are configurable (see SimulationConfig).
//
// # Sub-packages
//   - sim/trace/: blockage and unit-transition records, plus their summary
//   - sim/archive/: SQLite persistence of finished runs
package sim
