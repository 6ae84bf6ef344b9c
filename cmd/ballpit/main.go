package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/drag"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/export"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/optim"
	"github.com/san-kum/ballpit/internal/sim"
	"github.com/san-kum/ballpit/internal/storage"
	"github.com/san-kum/ballpit/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	logFile    string
	preset     string
	configFile string
	dt         float64
	duration   float64
	frameRate  float64
	maxSteps   int
	overflow   string
	seed       int64
	dragTarget int
	outFile    string
	showPreset bool
	frameIndex int
	svgSize    int
	sweepArgs  []string
	sweepBy    string

	logCloser io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ballpit",
		Short:        "verlet ball sandbox with a slope and a box",
		SilenceUsage: true,
		RunE:         runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ballpit", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return closeLog()
	}
	addSceneFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene headless and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive sandbox; drag balls with the mouse",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body heights of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the frames of a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw one frame, or the whole trajectory, of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame to draw; negative draws the trajectory")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 512, "picture size in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().BoolVar(&showPreset, "yaml", false, "print every preset as yaml")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run every preset concurrently and report throughput",
		Args:  cobra.NoArgs,
		RunE:  benchmark,
	}
	benchCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated seconds per preset")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a grid of knob values and rank them by a metric",
		Args:  cobra.NoArgs,
		RunE:  sweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepArgs, "param", nil, "knob=v1,v2,... (repeatable; knobs: "+strings.Join(config.Knobs, ", ")+")")
	sweepCmd.Flags().StringVar(&sweepBy, "metric", "energy_drift", "metric to minimise")

	rootCmd.AddCommand(runCmd, sweepCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportSVGCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		closeLog()
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "default", "preset scene")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), applied over the preset")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fixed timestep in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds (headless)")
	cmd.Flags().Float64Var(&frameRate, "fps", config.DefaultFrameRate, "host frame rate (headless)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "max steps per frame, 0 for no cap")
	cmd.Flags().StringVar(&overflow, "overflow", config.DefaultOverflow, "what to do past max-steps (drop, carry)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "jitter start positions with this seed (0 for none)")
	cmd.Flags().IntVar(&dragTarget, "drag-target", 0, "body grabbed when the pointer misses every ball")
}

// loadConfig applies the preset, then the config file, then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
	}

	if configFile != "" {
		if err := cfg.Merge(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Physics.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("fps") {
		cfg.Run.FrameRate = frameRate
	}
	if flags.Changed("max-steps") {
		cfg.Physics.MaxSteps = maxSteps
	}
	if flags.Changed("overflow") {
		cfg.Physics.Overflow = overflow
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("drag-target") {
		cfg.DragTarget = dragTarget
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command) error {
	interactive := cmd.Name() == "live" || cmd.Name() == "ballpit"
	logger, closer, err := newLogger(logLevel, logFormat, logFile, interactive)
	if err != nil {
		return err
	}
	logCloser = closer
	slog.SetDefault(logger)
	return nil
}

// closeLog releases the --log-file handle, if one is open.
func closeLog() error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// newLogger builds the process logger. The returned closer is non-nil only
// when path names a file.
func newLogger(level, format, path string, interactive bool) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if format != "text" && format != "json" {
		return nil, nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}

	var out io.Writer = os.Stderr
	var closer io.Closer
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	} else if interactive {
		// the alt screen owns the terminal
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}

// newRunner wires a headless runner for cfg with the default metrics.
func newRunner(cfg *config.Config, logger *slog.Logger) (*sim.Runner, error) {
	w, handles, err := cfg.BuildWorld()
	if err != nil {
		return nil, err
	}
	sched := sim.NewScheduler(w, append(cfg.SchedulerOptions(), sim.WithLogger(logger))...)
	r := sim.NewRunner(w, sched, drag.New(w))
	r.SetLogger(logger)
	r.SetDragTarget(handles[cfg.DragTarget])
	for _, m := range metrics.Default() {
		r.AddMetric(m)
	}
	return r, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger := slog.Default().With("preset", preset)
	r, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%d bodies)...\n", preset, len(cfg.Bodies))
	start := time.Now()

	result, err := r.Run(ctx, cfg.RunConfig())
	if err != nil {
		return fmt.Errorf("run %s: %w", preset, err)
	}

	elapsed := time.Since(start)

	colors := make([]string, 0, len(r.World().Bodies()))
	for _, b := range r.World().Bodies() {
		colors = append(colors, b.Appearance)
	}
	runID, err := st.Save(storage.RunMetadata{
		Preset:    preset,
		Seed:      cfg.Seed,
		Dt:        cfg.Physics.Dt,
		Duration:  result.Duration,
		FrameRate: cfg.Run.FrameRate,
		Overflow:  cfg.Physics.Overflow,
		Colors:    colors,
		Geometry:  r.World().Solver().Segments(),
	}, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, handles, err := cfg.BuildWorld()
	if err != nil {
		return err
	}
	sched := sim.NewScheduler(w, append(cfg.SchedulerOptions(), sim.WithLogger(slog.Default()))...)
	return tui.Run("ballpit: "+preset, w, sched, handles[cfg.DragTarget])
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tBODIES\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.5fs\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Bodies,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(frames))

	heights := storage.Heights(frames)
	handles := make([]dynamo.Handle, 0, len(heights))
	for h := range heights {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	const maxPlots = 6
	for i, h := range handles {
		if i == maxPlots {
			fmt.Printf("(%d more bodies not shown)\n", len(handles)-maxPlots)
			break
		}
		graph := asciigraph.Plot(heights[h],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d height", h)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	if outFile != "" {
		if err := storage.WriteFrames(outFile, frames); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outFile)
		return nil
	}
	return gocsv.Marshal(storage.Records(frames), os.Stdout)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	scene := export.Scene{Segments: meta.Geometry, Colors: meta.Colors}
	var svg string
	if frameIndex < 0 {
		svg = export.TrajectorySVG(frames, scene, svgSize)
	} else {
		if frameIndex >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d)", frameIndex, len(frames))
		}
		svg = export.FrameSVG(frames[frameIndex], scene, svgSize)
	}

	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 || showPreset {
		names := config.ListPresets()
		if len(args) == 1 {
			names = args
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		for _, name := range names {
			cfg := config.GetPreset(name)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s", name)
			}
			if err := enc.Encode(cfg); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tDURATION\tINPUT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.1fs\t%d events\n", name, len(cfg.Bodies), cfg.Run.Duration, len(cfg.Run.Input))
	}
	return w.Flush()
}

func benchmark(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		cfg := config.GetPreset(name)
		cfg.Run.Duration = duration
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger := slog.Default().With("preset", name)
		jobs = append(jobs, sim.Job{
			Name:   name,
			Build:  func() (*sim.Runner, error) { return newRunner(cfg, logger) },
			Config: cfg.RunConfig(),
		})
	}

	fmt.Printf("benchmarking %d presets, %.1fs simulated each...\n\n", len(jobs), duration)
	start := time.Now()
	results, err := sim.NewEnsemble(jobs...).Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTEPS\tCONTACTS\tENERGY DRIFT\tKINEMATIC")
	total := 0
	for i, res := range results {
		total += res.Steps
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%.2e\t%.2fs\n",
			jobs[i].Name, res.Steps, res.Metrics["contacts"], res.Metrics["energy_drift"], res.Metrics["kinematic_time"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d steps in %v (%.0f steps/s)\n", total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func parseParam(arg string) (optim.Param, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || name == "" || list == "" {
		return optim.Param{}, fmt.Errorf("invalid --param %q (want knob=v1,v2)", arg)
	}
	p := optim.Param{Name: name}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return optim.Param{}, fmt.Errorf("--param %s: %w", name, err)
		}
		p.Values = append(p.Values, v)
	}
	if err := config.DefaultConfig().Set(name, 0); err != nil {
		return optim.Param{}, err
	}
	return p, nil
}

func sweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepArgs) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	params := make([]optim.Param, 0, len(sweepArgs))
	for _, arg := range sweepArgs {
		p, err := parseParam(arg)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	g := optim.NewGridSearch(params...)
	logger := slog.Default().With("preset", preset)
	g.SetLogger(logger)

	run := func(ctx context.Context, values map[string]float64) (*dynamo.Result, error) {
		cfg := base.Clone()
		for name, v := range values {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		r, err := newRunner(cfg, logger.With("params", values))
		if err != nil {
			return nil, err
		}
		return r.Run(ctx, cfg.RunConfig())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %d cells of %s by %s...\n\n", g.Size(), preset, sweepBy)
	points, err := g.Search(ctx, run, sweepBy)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(params)+2)
	for _, p := range params {
		header = append(header, strings.ToUpper(p.Name))
	}
	header = append(header, strings.ToUpper(sweepBy), "STEPS")
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, pt := range points {
		row := make([]string, 0, len(header))
		for _, p := range params {
			row = append(row, strconv.FormatFloat(pt.Params[p.Name], 'g', -1, 64))
		}
		if pt.Err != nil {
			row = append(row, "error: "+pt.Err.Error(), "-")
		} else {
			row = append(row, fmt.Sprintf("%.6g", pt.Value), strconv.Itoa(pt.Result.Steps))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}
