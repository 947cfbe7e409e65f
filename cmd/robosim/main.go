package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/experiment"
	"github.com/san-kum/robosim/internal/export"
	"github.com/san-kum/robosim/internal/integrators"
	"github.com/san-kum/robosim/internal/logging"
	"github.com/san-kum/robosim/internal/match"
	"github.com/san-kum/robosim/internal/optim"
	"github.com/san-kum/robosim/internal/storage"
	"github.com/san-kum/robosim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	workers    int
	logLevel   string
	logFormat  string
	logFile    string
	robotName  string
	outFile    string
	svgWidth   int
	tuneRobot  string
	tuneMetric string
	tuneGrid   []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "robosim",
		Short:        "robot motion control and match simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".robosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a match and store its traces",
		Args:  cobra.NoArgs,
		RunE:  runMatch,
	}
	matchFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a match with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	matchFlags(liveCmd)
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the trace of one robot",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&robotName, "robot", "", "robot to plot (default: first robot of the run)")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run with its traces as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the robot paths of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 900, "image width in pixels")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller parameters of one robot",
		Args:  cobra.NoArgs,
		RunE:  tuneRobotParams,
	}
	matchFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneRobot, "robot", "", "robot to tune (default: first robot)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "arrival_time", "metric to minimise")
	tuneCmd.Flags().StringArrayVar(&tuneGrid, "grid", nil, "parameter values, e.g. max_linear=0.3,0.5,0.8 (repeatable)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in match presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, svgCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func matchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "match config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in preset (default: square)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "match duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for start jitter")
	cmd.Flags().StringVar(&integrator, "integrator", integrators.Default,
		"integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().IntVar(&workers, "workers", 0, "goroutines stepping robots (0: one per robot)")
}

// loadConfig resolves the match config from --config or --preset, then
// applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "" && preset != "":
		return nil, errors.New("--config and --preset are mutually exclusive")
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	default:
		name := preset
		if name == "" {
			name = "square"
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	return cfg, cfg.Validate()
}

func newLogger(paths ...string) (*zap.Logger, error) {
	return logging.New(logLevel, logFormat, paths...)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%d robots)...\n", cfg.Name, len(cfg.Robots))
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		log.Warn("match interrupted", zap.Error(runErr))
	}
	elapsed := time.Since(start)

	robots := make([]storage.RobotInfo, 0, len(cfg.Robots))
	for _, rc := range cfg.Robots {
		robots = append(robots, storage.RobotInfo{Name: rc.Name, Kind: rc.Kind, Radius: rc.Radius})
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:       cfg.Name,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Integrator: cfg.Integrator,
		Table:      cfg.Table,
		Robots:     robots,
	}, result)
	if err != nil {
		return err
	}

	status := viz.StatusOK.Render("completed")
	if runErr != nil {
		status = viz.StatusWarn.Render("interrupted")
	}
	fmt.Printf("%s in %v\n", status, elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", viz.Title.Render(runID))
	fmt.Printf("simulated %.2fs in %d steps\n", result.Duration, result.StepsTaken)
	printMetrics(os.Stdout, result.Metrics, result.Teams)
	return runErr
}

func printMetrics(w io.Writer, metrics map[string]map[string]float64, teams map[string]int) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "\n%s %s\n", viz.Title.Render(name), viz.Subtle.Render(fmt.Sprintf("team %d", teams[name])))
		keys := make([]string, 0, len(metrics[name]))
		for k := range metrics[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s%s\n", viz.MetricLabel.Render(k), viz.MetricValue.Render(fmt.Sprintf("%.6f", metrics[name][k])))
		}
	}
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tINTEG\tROBOTS")

	for _, run := range runs {
		names := make([]string, len(run.Robots))
		for i, r := range run.Robots {
			names[i] = r.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			strings.Join(names, ","),
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

	name := robotName
	if name == "" {
		if len(meta.Robots) == 0 {
			return fmt.Errorf("run %s has no robots", runID)
		}
		name = meta.Robots[0].Name
	}
	samples, err := st.LoadTrace(runID, name)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("robot: %s\n", name)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, graph := range viz.PlotTrace(samples, 80, 10) {
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(f, args[0]); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	paths := make([]export.Path, 0, len(meta.Robots))
	for _, r := range meta.Robots {
		samples, err := st.LoadTrace(runID, r.Name)
		if err != nil {
			return err
		}
		p := export.PathFromTrace(r.Name, r.Team, samples)
		p.Radius = r.Radius
		paths = append(paths, p)
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(f, meta.Table, paths, svgWidth); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// parseGrid parses name=v1,v2,... entries.
func parseGrid(entries []string) (map[string][]float64, error) {
	grid := make(map[string][]float64, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid grid entry %q, want name=v1,v2", e)
		}
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("grid %s: %w", name, err)
			}
			grid[name] = append(grid[name], v)
		}
	}
	return grid, nil
}

func tuneRobotParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grid, err := parseGrid(tuneGrid)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	robot := tuneRobot
	if robot == "" {
		robot = cfg.Robots[0].Name
	}
	g, err := optim.NewGridSearch(robot, tuneMetric, grid, log)
	if err != nil {
		return err
	}
	// --workers bounds concurrent candidates here, each match steps inline
	g.Workers = runtime.GOMAXPROCS(0)
	if cmd.Flags().Changed("workers") {
		g.Workers = workers
	}
	cfg.Workers = 1

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("tuning %s on %s: %d candidates\n", robot, cfg.Name, len(g.Points()))
	candidates, err := g.Search(ctx, cfg)
	if err != nil && !errors.Is(err, optim.ErrNoCandidate) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\tPARAMS\n", strings.ToUpper(tuneMetric))
	for i, c := range candidates {
		if i == 10 {
			break
		}
		keys := make([]string, 0, len(c.Params))
		for k := range c.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = fmt.Sprintf("%s=%g", k, c.Params[k])
		}
		score := fmt.Sprintf("%.4f", c.Score)
		if c.Err != nil {
			score = "error: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, score, strings.Join(parts, " "))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDURATION\tROBOTS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		robots := make([]string, len(cfg.Robots))
		for i, r := range cfg.Robots {
			robots[i] = fmt.Sprintf("%s(%s)", r.Name, r.Kind)
		}
		fmt.Fprintf(w, "%s\t%.0fs\t%s\n", name, cfg.Duration, strings.Join(robots, " "))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the TUI owns the terminal, so logs go to a file or nowhere
	log := zap.NewNop()
	if logFile != "" {
		if log, err = newLogger(logFile); err != nil {
			return err
		}
	}
	defer log.Sync()

	factory := func() (*match.Match, error) {
		exp, err := experiment.New(cfg.Clone(), log)
		if err != nil {
			return nil, err
		}
		return exp.Match(), nil
	}
	m, err := viz.NewModel(cfg.Name, factory)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}
