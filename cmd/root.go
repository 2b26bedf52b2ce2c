package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/watersupply-sim/watersupply-sim/sim"
	"github.com/watersupply-sim/watersupply-sim/sim/archive"
	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

var (
	// CLI flags for the simulation horizon and flows
	horizonHours  int     // Number of simulated hours
	flowWell      float64 // Well pump flow into A (m³/h)
	flowTreatment float64 // Treatment flow out of A (m³/h)
	flowTransfer  float64 // Transfer pump flow from B to Principal (m³/h)

	// CLI flags for float-switch thresholds
	wellOn   float64 // Well starts at A <= well-on
	wellOff  float64 // Well stops at A >= well-off
	treatOn  float64 // Treatment starts at A >= treat-on
	treatOff float64 // Treatment stops at A <= treat-off
	bMin     float64 // Transfer source floor in B
	bArm     float64 // Transfer re-arm level in B
	cMin     float64 // C floor
	cMax     float64 // C ceiling

	// CLI flags for input, output and logging
	configPath  string // YAML simulation config; flags override it when set explicitly
	logLevel    string // Log verbosity level
	traceLevel  string // Transition trace level
	seriesOut   string // CSV path for the level time series
	resultsOut  string // JSON path for the full result
	archivePath string // SQLite archive path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "watersupply-sim",
	Short: "Hour-by-hour simulator for a small water-supply network",
}

// runCmd executes the simulation using parameters from CLI flags and an optional config file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the water-supply simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load configuration: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q (none, transitions)", traceLevel)
		}

		logrus.Infof("Starting simulation: horizon=%dh flows(well=%.2f, treatment=%.2f, transfer=%.2f)",
			cfg.HorizonHours, cfg.FlowWell, cfg.FlowTreatment, cfg.FlowTransfer)
		startTime := time.Now()

		s, err := sim.NewSimulator(cfg, trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		if err != nil {
			logrus.Fatalf("Refusing to start simulation: %v", err)
		}
		s.Run()
		result := s.Result()

		printReport(os.Stdout, result)

		if seriesOut != "" {
			if err := writeSeriesCSV(seriesOut, result.Series); err != nil {
				logrus.Fatalf("Unable to write time series: %v", err)
			}
			logrus.Infof("Time series written to %s", seriesOut)
		}
		if resultsOut != "" {
			if err := writeResultJSON(resultsOut, "", result); err != nil {
				logrus.Fatalf("Unable to write results: %v", err)
			}
			logrus.Infof("Results written to %s", resultsOut)
		}
		if archivePath != "" {
			id, err := archiveResult(cmd.Context(), archivePath, result)
			if err != nil {
				logrus.Fatalf("Unable to archive run: %v", err)
			}
			logrus.Infof("Run archived as %s in %s", id, archivePath)
		}

		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// setupLogging applies --log to the global logger.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// buildConfig loads --config (or the defaults) and overlays every flag the user set
// explicitly. Flags left at their defaults never overwrite file values.
func buildConfig(cmd *cobra.Command) (sim.SimulationConfig, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("horizon") {
		cfg.HorizonHours = horizonHours
	}
	overrides := []struct {
		flag string
		src  *float64
		dst  *float64
	}{
		{"flow-well", &flowWell, &cfg.FlowWell},
		{"flow-treatment", &flowTreatment, &cfg.FlowTreatment},
		{"flow-transfer", &flowTransfer, &cfg.FlowTransfer},
		{"well-on", &wellOn, &cfg.WellOn},
		{"well-off", &wellOff, &cfg.WellOff},
		{"treat-on", &treatOn, &cfg.TreatOn},
		{"treat-off", &treatOff, &cfg.TreatOff},
		{"b-min", &bMin, &cfg.BMin},
		{"b-arm", &bArm, &cfg.BArm},
		{"c-min", &cMin, &cfg.CMin},
		{"c-max", &cMax, &cfg.CMax},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = *o.src
		}
	}
	return cfg, nil
}

// archiveResult stores a result under a fresh run ID.
func archiveResult(ctx context.Context, path string, result *sim.Result) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := archive.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	id := archive.NewRunID()
	if err := store.Save(ctx, id, result); err != nil {
		return "", err
	}
	return id, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerConfigFlags adds the simulation parameter flags to a command.
func registerConfigFlags(cmd *cobra.Command) {
	d := sim.DefaultConfig()

	cmd.Flags().IntVar(&horizonHours, "horizon", d.HorizonHours, "Simulation horizon (hours)")
	cmd.Flags().Float64Var(&flowWell, "flow-well", d.FlowWell, "Well pump flow into tank A (m3/h)")
	cmd.Flags().Float64Var(&flowTreatment, "flow-treatment", d.FlowTreatment, "Treatment flow out of tank A (m3/h)")
	cmd.Flags().Float64Var(&flowTransfer, "flow-transfer", d.FlowTransfer, "Transfer pump flow from B to Principal (m3/h)")

	cmd.Flags().Float64Var(&wellOn, "well-on", d.WellOn, "Well float: start level in A (m3)")
	cmd.Flags().Float64Var(&wellOff, "well-off", d.WellOff, "Well float: stop level in A, also A capacity (m3)")
	cmd.Flags().Float64Var(&treatOn, "treat-on", d.TreatOn, "Treatment float: start level in A (m3)")
	cmd.Flags().Float64Var(&treatOff, "treat-off", d.TreatOff, "Treatment float: stop level in A (m3)")
	cmd.Flags().Float64Var(&bMin, "b-min", d.BMin, "Tank B: minimum level for the transfer pump (m3)")
	cmd.Flags().Float64Var(&bArm, "b-arm", d.BArm, "Tank B: transfer re-arm level, also B capacity (m3)")
	cmd.Flags().Float64Var(&cMin, "c-min", d.CMin, "Tank C: minimum level (m3)")
	cmd.Flags().Float64Var(&cMax, "c-max", d.CMax, "Tank C: maximum level (m3)")

	cmd.Flags().StringVar(&configPath, "config", "", "YAML simulation config (explicit flags override it)")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerConfigFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Transition trace level (none, transitions)")
	runCmd.Flags().StringVar(&seriesOut, "series-out", "", "Write the level time series as CSV to this path")
	runCmd.Flags().StringVar(&resultsOut, "results-out", "", "Write the full result as JSON to this path")
	runCmd.Flags().StringVar(&archivePath, "archive", "", "Archive the run in this SQLite database")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
