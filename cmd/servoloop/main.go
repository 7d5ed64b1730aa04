package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/servoloop/internal/config"
	"github.com/san-kum/servoloop/internal/hardware"
	"github.com/san-kum/servoloop/internal/logging"
	"github.com/san-kum/servoloop/internal/loop"
	"github.com/san-kum/servoloop/internal/metrics"
	"github.com/san-kum/servoloop/internal/optim"
	"github.com/san-kum/servoloop/internal/report"
	"github.com/san-kum/servoloop/internal/simio"
	"github.com/san-kum/servoloop/internal/storage"
	"github.com/san-kum/servoloop/internal/tui"
)

var (
	dataDir  string
	logFile  string
	logLevel string

	configFile string
	preset     string
	periodMS   int
	sampler    string

	record      bool
	quiet       bool
	printAngles bool
	colorOut    bool
	printEach   int

	input  string
	cycles int
	seed   int64

	format  string
	outFile string

	readCount    int
	readInterval time.Duration

	tuneInput string
	kpRange   string
	kiRange   string
	kdRange   string
	metric    string
	workers   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "servoloop",
		Short:         "joystick to servo control loop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".servoloop", "data directory for recorded runs")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "also write the log to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "drive the arm from the joystick",
		RunE:  runHardware,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&record, "record", false, "record the run")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "do not print servo angles")
	runCmd.Flags().BoolVar(&colorOut, "color", false, "colour channel names")
	runCmd.Flags().IntVar(&printEach, "every", 1, "print one cycle in n")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "run the loop against simulated input",
		RunE:  runSimulation,
	}
	addConfigFlags(simulateCmd)
	addInputFlags(simulateCmd)
	simulateCmd.Flags().IntVar(&cycles, "cycles", 200, "number of cycles")
	simulateCmd.Flags().BoolVar(&record, "record", false, "record the run")
	simulateCmd.Flags().BoolVar(&printAngles, "print", false, "print servo angles every cycle")
	simulateCmd.Flags().IntVar(&printEach, "every", 1, "print one cycle in n")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "run the loop with a live dashboard",
		RunE:  runMonitor,
	}
	addConfigFlags(monitorCmd)
	addInputFlags(monitorCmd)

	inputsCmd := &cobra.Command{
		Use:   "inputs",
		Short: "print joystick direction and button state",
		RunE:  readInputs,
	}
	addConfigFlags(inputsCmd)
	addInputFlags(inputsCmd)
	inputsCmd.Flags().IntVar(&readCount, "count", 0, "number of reads (0 = until interrupted)")
	inputsCmd.Flags().DurationVar(&readInterval, "interval", 100*time.Millisecond, "time between reads")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "check a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d channels, %v period)\n", args[0], len(cfg.Channels), cfg.CyclePeriod())
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-12s %v\n", name, cfg.CyclePeriod())
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	addConfigFlags(configCmd)
	configCmd.Flags().StringVar(&format, "format", "yaml", "yaml or toml")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot servo angles of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export servo angles of a run as an SVG chart",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search PID gains against simulated input",
		RunE:  tuneGains,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneInput, "input", "full", fmt.Sprintf("simulated input %v", simio.Scenarios()))
	tuneCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for noisy inputs")
	tuneCmd.Flags().IntVar(&cycles, "cycles", 200, "cycles per candidate")
	tuneCmd.Flags().StringVar(&kpRange, "kp", "0.1:1.0:0.1", "kp values (a,b,c or start:stop:step)")
	tuneCmd.Flags().StringVar(&kiRange, "ki", "0,0.05,0.1", "ki values")
	tuneCmd.Flags().StringVar(&kdRange, "kd", "0,0.1", "kd values")
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_error", "metric to minimise")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations (0 = all cores)")

	rootCmd.AddCommand(runCmd, simulateCmd, monitorCmd, inputsCmd, validateCmd, presetsCmd, configCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "arm", "preset to start from")
	cmd.Flags().IntVar(&periodMS, "period", config.DefaultCyclePeriodMS, "cycle period in ms")
	cmd.Flags().StringVar(&sampler, "sampler", "repeat", "repeat or replicate")
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&input, "input", "sweep", fmt.Sprintf("simulated input %v, or hardware", simio.Scenarios()))
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for noisy inputs")
}

// loadConfig starts from the preset, applies the config file and then any
// flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("period") {
		cfg.CyclePeriodMS = periodMS
	}
	if cmd.Flags().Changed("sampler") {
		cfg.Sampler = sampler
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr unless console is false, and to --log when set.
func newLogger(console bool) (*logging.MultiLogger, io.Closer, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	var file io.WriteCloser
	if logFile != "" {
		file, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
	}

	var con io.Writer
	if console {
		con = os.Stderr
	}
	if file == nil {
		return logging.New(nil, con, level), nopCloser{}, nil
	}
	return logging.New(file, con, level), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildLoop wires cfg to hw with the shared observers of every command.
func buildLoop(cfg *config.Config, hw *loop.HardwareContext, log *logging.MultiLogger, opts ...loop.Option) (*loop.Loop, error) {
	lc, err := cfg.ToLoop()
	if err != nil {
		return nil, err
	}
	hw.Sampler, err = loop.ParseSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}
	opts = append([]loop.Option{loop.WithLogger(log)}, opts...)
	return loop.New(lc, hw, opts...)
}

// simClock advances by period on every call so simulated runs record the
// nominal cycle times.
func simClock(period time.Duration) func() time.Time {
	t := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(period)
		return now
	}
}

func saveRun(source string, cfg *config.Config, set *metrics.Set, rec *storage.Recording) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(storage.RunMetadata{
		Source:   source,
		Preset:   preset,
		Seed:     seed,
		PeriodMS: cfg.CyclePeriodMS,
		Metrics:  set.Values(),
	}, rec.Results)
}

func printMetrics(set *metrics.Set) {
	values := set.Values()
	fmt.Println("\nmetrics:")
	for _, name := range set.Names() {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}
}

func runHardware(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	board, err := hardware.Open(cfg.Hardware)
	if err != nil {
		return err
	}
	defer func() {
		if err := board.Close(); err != nil {
			log.Warningf("closing hardware: %v", err)
		}
	}()

	set := metrics.Default()
	rec := &storage.Recording{}
	l, err := buildLoop(cfg, board.Context(nil), log, loop.WithObserver(set))
	if err != nil {
		return err
	}
	if !quiet {
		p := report.NewPrinter(os.Stdout).Every(printEach)
		if colorOut {
			p.WithColor()
		}
		l.AddObserver(p)
	}
	if record {
		l.AddObserver(rec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("driving %d servos every %v", len(cfg.Channels), cfg.CyclePeriod())
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infof("stopped after %d cycles", l.Cycles())

	if record {
		runID, err := saveRun("hardware", cfg, set, rec)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printMetrics(set)
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	in, err := simio.NewScenario(input, seed)
	if err != nil {
		return err
	}

	set := metrics.Default()
	rec := &storage.Recording{}
	hw := &loop.HardwareContext{Input: in, Actuator: simio.NewRecorder()}
	l, err := buildLoop(cfg, hw, log, loop.WithObserver(set), loop.WithObserver(rec), loop.WithClock(simClock(cfg.CyclePeriod())))
	if err != nil {
		return err
	}
	if printAngles {
		l.AddObserver(report.NewPrinter(os.Stdout).Every(printEach))
	}

	fmt.Printf("simulating %d cycles of %s input...\n", cycles, input)
	start := time.Now()
	results, err := l.RunCycles(context.Background(), cycles)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	if len(results) > 0 {
		fmt.Println("\nfinal angles:")
		for _, c := range results[len(results)-1].Channels {
			fmt.Printf("  %-6s %7.2f (target %.2f)\n", c.Name, c.Angle, c.Target)
		}
	}

	if record {
		runID, err := saveRun("sim-"+input, cfg, set, rec)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printMetrics(set)
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the dashboard owns the terminal, so log to the file only
	log, closer, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	var hw *loop.HardwareContext
	if input == "hardware" {
		board, err := hardware.Open(cfg.Hardware)
		if err != nil {
			return err
		}
		defer board.Close()
		hw = board.Context(nil)
	} else {
		in, err := simio.NewScenario(input, seed)
		if err != nil {
			return err
		}
		hw = &loop.HardwareContext{Input: in, Actuator: simio.NewRecorder()}
	}

	l, err := buildLoop(cfg, hw, log)
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.NewMonitor("servoloop "+input, l.Channels()), tea.WithAltScreen())
	feed := tui.NewFeed(program)
	l.AddObserver(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := l.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		feed.Done(err)
		done <- err
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	cancel()
	return <-done
}

// readInputs reproduces the joystick bench test: X and Y are inputs 0 and 1,
// the button is the configured button input.
func readInputs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if readInterval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", readInterval)
	}

	var in loop.Input
	if input == "hardware" {
		board, err := hardware.Open(cfg.Hardware)
		if err != nil {
			return err
		}
		defer board.Close()
		in = board
	} else {
		in, err = simio.NewScenario(input, seed)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(readInterval)
	defer ticker.Stop()
	for i := 0; readCount == 0 || i < readCount; i++ {
		if _, err := report.ReadJoystick(os.Stdout, in, 0, 1, cfg.Hardware.ButtonInput); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ranges := make([][]float64, 0, len(optim.GainParams))
	for _, r := range []string{kpRange, kiRange, kdRange} {
		values, err := optim.ParseRange(r)
		if err != nil {
			return err
		}
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(optim.GainParams, ranges)
	if err != nil {
		return err
	}
	g.Workers = workers

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("searching %d gain sets on %s input, %d cycles each...\n", len(g.Candidates()), tuneInput, cycles)
	start := time.Now()
	res, err := g.Search(ctx, optim.GainEvaluator(cfg, tuneInput, seed, cycles, metric))
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v (%d failed)\n", time.Since(start), res.Failed)
	fmt.Printf("\nbest %s: %.6f\n", metric, res.Score)
	for _, name := range optim.GainParams {
		fmt.Printf("  %s: %g\n", name, res.Params[name])
	}
	return nil
}
