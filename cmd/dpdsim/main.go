package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dpdsim/internal/analysis"
	"github.com/san-kum/dpdsim/internal/automation"
	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/experiment"
	"github.com/san-kum/dpdsim/internal/export"
	"github.com/san-kum/dpdsim/internal/sim"
	"github.com/san-kum/dpdsim/internal/storage"
	"github.com/san-kum/dpdsim/internal/telemetry"
	"github.com/san-kum/dpdsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	steps       int
	seed        int64
	temperature float64
	timeStep    float64
	particles   int
	neighbor    string
	stress      bool
	ensemble    int
	metricsAddr string
	theme       string
	maxLag      int
	bins        int
	outFile     string
	snapshot    string
	verbose     bool

	sweepFile   string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dpdsim",
		Short:        "dissipative particle dynamics thermostat lab",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(presetMenu(), buildPreset, theme)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log simulator events to stderr")
	rootCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store the samples",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSystemFlags(runCmd)
	runCmd.Flags().BoolVar(&stress, "stress", false, "sample the stress tensor")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of replicas with consecutive seeds")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with the terminal monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSystemFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme")

	stressCmd := &cobra.Command{
		Use:   "stress [preset]",
		Short: "print the DPD stress tensor of the initial state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printStress,
	}
	addSystemFlags(stressCmd)

	velocitiesCmd := &cobra.Command{
		Use:   "velocities [preset]",
		Short: "run and compare the velocity distribution with Maxwell-Boltzmann",
		Args:  cobra.MaximumNArgs(1),
		RunE:  velocityDistribution,
	}
	addSystemFlags(velocitiesCmd)
	velocitiesCmd.Flags().IntVar(&bins, "bins", 24, "histogram bins")
	velocitiesCmd.Flags().StringVar(&snapshot, "snapshot", "", "write the final x-y projection to this SVG file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a preset over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSystemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepFile, "sweep", "", "sweep definition (yaml)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gamma", fmt.Sprintf("swept parameter %v", automation.SweepParams))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 9, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot temperature and pressure of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	viscosityCmd := &cobra.Command{
		Use:   "viscosity [run_id]",
		Short: "Green-Kubo shear viscosity from a run sampled with --stress",
		Args:  cobra.ExactArgs(1),
		RunE:  viscosity,
	}
	viscosityCmd.Flags().IntVar(&maxLag, "max-lag", 0, "longest correlation lag in samples (0 = half the series)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the temperature trace of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>_temperature.svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, p := range presetMenu() {
				fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Description)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, stressCmd, velocitiesCmd, sweepCmd, listCmd, plotCmd, viscosityCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSystemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "target temperature")
	cmd.Flags().Float64Var(&timeStep, "dt", config.DefaultTimeStep, "time step")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	cmd.Flags().StringVar(&neighbor, "neighbor", config.NeighborCells, "pair enumerator (cells, all-pairs)")
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "dpdsim: ", log.LstdFlags|log.Lmsgprefix)
}

// simLogger is handed to simulators; they are only chatty with -v.
func simLogger() *log.Logger {
	if !verbose {
		return nil
	}
	return newLogger()
}

// loadConfig resolves the run configuration: preset (positional argument
// or --preset), then --config, then explicitly set flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := preset
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case name != "":
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("temperature") {
		cfg.Temperature = temperature
	}
	if flags.Changed("dt") {
		cfg.TimeStep = timeStep
	}
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("neighbor") {
		cfg.Neighbor = neighbor
	}
	if flags.Changed("stress") {
		cfg.Stress = stress
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.Name == "" {
		cfg.Name = "run"
	}
	for _, w := range cfg.Warnings() {
		newLogger().Printf("warning: %s", w)
	}
	return cfg, nil
}

func presetMenu() []viz.Preset {
	names := config.ListPresets()
	out := make([]viz.Preset, 0, len(names))
	for _, name := range names {
		cfg := config.GetPreset(name)
		thermo := "thermostat on"
		if !cfg.Thermostat {
			thermo = "thermostat off"
		}
		desc := fmt.Sprintf("%d particles, %d types, T=%.2g, %s", cfg.Particles, cfg.Types, cfg.Temperature, thermo)
		if len(cfg.Schedule) > 0 {
			desc += fmt.Sprintf(", %d events", len(cfg.Schedule))
		}
		out = append(out, viz.Preset{Name: name, Description: desc, Steps: cfg.Steps})
	}
	return out
}

func buildPreset(name string) (*sim.Simulator, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	exp, err := experiment.New(cfg, simLogger())
	if err != nil {
		return nil, err
	}
	return exp.Build(cfg.Seed)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func serveMetrics(logger *log.Logger, rec *telemetry.Recorder) func() {
	srv := &http.Server{Addr: metricsAddr, Handler: rec.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("metrics server: %v", err)
		}
	}()
	logger.Printf("serving metrics on %s/metrics", metricsAddr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, simLogger())
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		rec := telemetry.NewRecorder(cfg.Name)
		exp.Observe(func(s int64) sim.Observer {
			if s != cfg.Seed {
				return nil
			}
			return rec
		})
		stop := serveMetrics(logger, rec)
		defer stop()
	}

	ctx, cancel := signalContext()
	defer cancel()

	st := storage.New(cfg.DataDir)
	if err := st.Init(ctx); err != nil {
		return err
	}
	defer st.Close()

	fmt.Printf("running %s: %d particles, %d steps, T=%g\n", cfg.Name, cfg.Particles, cfg.Steps, cfg.Temperature)
	start := time.Now()

	var results []*sim.Result
	if ensemble > 1 {
		results, err = exp.RunEnsemble(ctx, ensemble)
	} else {
		var r *sim.Result
		r, err = exp.Run(ctx)
		results = []*sim.Result{r}
	}
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	for _, result := range results {
		runCfg := cfg.Clone()
		runCfg.Seed = result.Seed
		runID, err := st.Save(ctx, runCfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s (seed %d)\n", runID, result.Seed)
		fmt.Printf("steps: %d  samples: %d  resorts: %d\n", result.StepsTaken, len(result.Samples), result.Resorts)
		fmt.Println("metrics:")
		for _, name := range sortedKeys(result.Metrics) {
			fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, nil)
	if err != nil {
		return err
	}
	s, err := exp.Build(cfg.Seed)
	if err != nil {
		return err
	}
	return viz.Run(viz.NewModel(s, cfg.Name, cfg.Steps).WithTheme(theme))
}

func printStress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, nil)
	if err != nil {
		return err
	}
	s, err := exp.Build(cfg.Seed)
	if err != nil {
		return err
	}

	t := s.Stress()
	fmt.Printf("stress tensor of %s (%d particles, V=%g)\n\n", cfg.Name, len(s.Particles()), s.Context().Volume())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tx\ty\tz\t")
	for i, axis := range []string{"x", "y", "z"} {
		fmt.Fprintf(w, "%s\t%.6e\t%.6e\t%.6e\t\n", axis, t.At(i, 0), t.At(i, 1), t.At(i, 2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npressure: %.6e\n", t.Pressure())
	return nil
}

func velocityDistribution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, simLogger())
	if err != nil {
		return err
	}
	s, err := exp.Build(cfg.Seed)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := s.Run(ctx, exp.RunConfig()); err != nil {
		return err
	}

	limit := 4 * sqrtPositive(cfg.Temperature/cfg.Mass)
	h := analysis.VelocityHistogram(s.Particles(), bins, limit)
	fmt.Printf("velocity distribution after %d steps (T=%g, T_kin=%.4f)\n\n", s.StepCount(), cfg.Temperature, s.Particles().KineticTemperature())
	fmt.Println(analysis.HistogramToASCII(h, 50, cfg.Temperature, cfg.Mass))
	fmt.Printf("max deviation from Maxwell-Boltzmann: %.4f\n", h.MaxDeviation(cfg.Temperature, cfg.Mass))

	if snapshot != "" {
		c := viz.NewCanvas(60, 30)
		box := s.Context().Box
		for _, p := range s.Particles() {
			c.Plot(p.Pos[0], p.Pos[1], box[0], box[1])
		}
		if err := os.WriteFile(snapshot, []byte(export.CanvasToSVG(c, 4)), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", snapshot)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	defer st.Close()
	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tPARTICLES\tSTEPS\tDT\tT\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4g\t%.4g\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.TimeStep,
			run.Temperature,
			run.Seed,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	result := &sim.Result{Samples: samples}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	temps := result.Series(func(s sim.Sample) float64 { return s.Temperature })
	fmt.Println(asciigraph.Plot(temps,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("kinetic temperature (target %g)", meta.Temperature)),
	))
	mean, stderr := analysis.BlockAverage(temps[len(temps)/2:], 5)
	fmt.Printf("\nsecond half: T = %.4f ± %.4f\n", mean, stderr)

	if samples[0].HasStress {
		pressure := result.Series(func(s sim.Sample) float64 { return s.Stress.Pressure() })
		fmt.Println()
		fmt.Println(asciigraph.Plot(pressure,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("DPD pressure"),
		))
	}
	return nil
}

func viscosity(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, samples, err := loadRun(runID)
	if err != nil {
		return err
	}
	if !samples[0].HasStress {
		return fmt.Errorf("run %s was not sampled with --stress", runID)
	}
	samples = uniformSamples(samples)
	if len(samples) < 2 {
		return analysis.ErrTooShort
	}

	dt := samples[1].Time - samples[0].Time
	volume := meta.Box[0] * meta.Box[1] * meta.Box[2]
	lag := maxLag
	if lag <= 0 {
		lag = len(samples) / 2
	}
	eta, running, err := analysis.ShearViscosity(samples, dt, volume, meta.Temperature, lag)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  samples: %d  dt: %g  lag: %d\n\n", meta.ID, len(samples), dt, lag)
	if len(running) > 1 {
		fmt.Println(asciigraph.Plot(running,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("running Green-Kubo integral"),
		))
	}
	fmt.Printf("\nshear viscosity: %.6f\n", eta)
	return nil
}

// uniformSamples drops a trailing sample taken off the regular stride.
func uniformSamples(samples []sim.Sample) []sim.Sample {
	n := len(samples)
	if n < 3 {
		return samples
	}
	stride := samples[1].Step - samples[0].Step
	if samples[n-1].Step-samples[n-2].Step != stride {
		return samples[:n-1]
	}
	return samples
}

func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := export.WriteCSV(f, samples); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "exported %d samples to %s\n", len(samples), outFile)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	defer closeFn()
	return export.WriteJSON(f, meta, samples)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	result := &sim.Result{Samples: samples}
	times := result.Series(func(s sim.Sample) float64 { return s.Time })
	temps := result.Series(func(s sim.Sample) float64 { return s.Temperature })

	path := outFile
	if path == "" {
		path = meta.ID + "_temperature.svg"
	}
	if err := os.WriteFile(path, []byte(export.SeriesToSVG(times, temps, meta.Temperature, 800, 300, "#00ffff")), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	var sw *automation.Sweep
	if sweepFile != "" {
		if sw, err = automation.LoadSweep(sweepFile); err != nil {
			return err
		}
	} else {
		sw = &automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Points: sweepPoints}
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, cfg, sw, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tT\t±\tT TARGET\t|ΔP|\tRESORTS\tSTABLE\n", sw.Param)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.4f\t%.4g\t%.2e\t%d\t%v\n",
			r.Value, r.Temperature, r.StdErr, r.Target, r.MomentumDrift, r.Resorts, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d/%d points stable\n", automation.StableCount(results), len(results))
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sqrtPositive(v float64) float64 {
	if !(v > 0) {
		return 1
	}
	return math.Sqrt(v)
}
