package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/miretskiy/roundrobin/simulator"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	configFile string
	seed       int64
	quantum    int64
	length     int64
	outputFile string
	traceFile  string
	trace      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sim_runner",
	Short: "Round-Robin scheduling simulator",
	Long: `Runs a batch Round-Robin CPU/I-O scheduling simulation.

Processes arrive at random, wait for main memory, then alternate between the
CPU ready queue and the I/O device until they finish. The final report is
printed to stdout; full results can be written as JSON with --output.`,
	SilenceUsage: true,
	RunE:         runSimulation,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML or JSON configuration file (defaults are used if not specified)")
	rootCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Random seed (0 = time based)")
	rootCmd.Flags().Int64VarP(&quantum, "quantum", "q", 0, "Time quantum in ms (overrides config)")
	rootCmd.Flags().Int64VarP(&length, "length", "l", 0, "Simulated length in ms (overrides config)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Path to output JSON file (optional)")
	rootCmd.Flags().BoolVar(&trace, "trace", false, "Write a CSV trace of every handled event")
	rootCmd.Flags().StringVar(&traceFile, "trace-file", "", "Path of the CSV trace (default rrsim_trace_<id>.csv)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging from simulator")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func loadConfig(cmd *cobra.Command) (simulator.SimConfig, error) {
	config := simulator.DefaultConfig()
	if configFile != "" {
		loaded, err := simulator.LoadConfig(configFile)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if cmd.Flags().Changed("seed") {
		config.RandomSeed = seed
	}
	if cmd.Flags().Changed("quantum") {
		config.MaxCpuTime = quantum
	}
	if cmd.Flags().Changed("length") {
		config.SimulationLength = length
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runID := xid.New().String()
	log := logrus.WithField("run", runID)

	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	if verbose {
		sim.LogEvent = func(msg string) {
			log.Debug(msg)
		}
	}

	if trace {
		writer := simulator.NewCSVTraceWriter(traceFile)
		if err := writer.Init(); err != nil {
			return fmt.Errorf("failed to create trace: %w", err)
		}
		sim.Tracer = writer
		log.Infof("Tracing events to %s", writer.Path())
	}

	if err := sim.Reset(); err != nil {
		return fmt.Errorf("failed to reset simulator: %w", err)
	}

	log.Infof("Starting simulation for %d virtual ms (quantum=%d, memory=%dkB)",
		config.SimulationLength, config.MaxCpuTime, config.MemorySize)
	startTime := time.Now()

	stats := sim.Run()

	elapsed := time.Since(startTime)
	log.Infof("Simulation completed in %v (%d virtual ms)", elapsed, sim.VirtualTime())

	report := sim.Report()
	report.Print(os.Stdout)

	if outputFile == "" {
		return nil
	}

	results := map[string]interface{}{
		"runId":       runID,
		"config":      config,
		"virtualTime": sim.VirtualTime(),
		"realTime":    elapsed.Seconds(),
		"report":      report,
		"statistics":  stats,
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputFile, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Infof("Results written to %s", outputFile)
	return nil
}
