package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/rprocfit/internal/config"
	"github.com/san-kum/rprocfit/internal/logging"
	"github.com/san-kum/rprocfit/internal/metrics"
	"github.com/san-kum/rprocfit/internal/yields"
)

var (
	dataDir     string
	configFile  string
	preset      string
	metricsFile string
	logLevel    string
	logJSON     bool
	// Scenario overrides
	scenarioKind string
	ratePerMass  float64
	windowStart  float64
	windowStop   float64
	width        float64
	tEnd         float64
	events       []float64
	yieldTable   string
	disabled     bool
	mrdGrid      []float64
	// Catalog and fit
	catalogPath string
	galaxy      string
	require     string
	target      string
	policy      string
	// Engine
	engineCmd     string
	engineArgs    []string
	engineTimeout time.Duration
	workers       int
	// Output
	xAxis   string
	yAxis   string
	outPath string

	cfg    *config.Config
	logger *zap.Logger
	mets   *metrics.Manager
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "rprocfit",
		Short:             "r-process enrichment scenarios against observed abundances",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				_ = logger.Sync()
			}
			if metricsFile != "" && mets != nil {
				return mets.WriteTextfile(metricsFile)
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")

	dtdCmd := &cobra.Command{
		Use:   "dtd [run_id]",
		Short: "show the delay-time distribution of a scenario or a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showDTD,
	}
	scenarioFlags(dtdCmd)
	dtdCmd.Flags().StringVarP(&outPath, "out", "o", "", "write table (.json, .yaml) or figure (.png, .svg)")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "observational catalogs",
	}
	catalogConvertCmd := &cobra.Command{
		Use:   "convert [reichert.dat] [out.csv]",
		Short: "convert the Reichert et al. (2020) table to catalog CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  convertCatalog,
	}
	catalogConvertCmd.Flags().StringVar(&galaxy, "galaxy", "For", "galaxy to keep")
	catalogConvertCmd.Flags().StringVar(&require, "require", "Eu", "drop stars without this element")
	catalogShowCmd := &cobra.Command{
		Use:   "show [path]",
		Short: "list the stars of a catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showCatalog,
	}
	catalogShowCmd.Flags().StringVar(&galaxy, "galaxy", "", "galaxy filter")
	catalogShowCmd.Flags().StringVar(&target, "target", "", "ratio column to show")
	catalogCmd.AddCommand(catalogConvertCmd, catalogShowCmd)

	yieldsCmd := &cobra.Command{
		Use:   "yields",
		Short: "yield tables",
	}
	convertMRDCmd := &cobra.Command{
		Use:   "convert-mrd [src] [dst]",
		Short: "convert Nishimura et al. (2017) MRD yields to the engine format",
		Args:  cobra.ExactArgs(2),
		RunE:  convertMRD,
	}
	convertMRDCmd.Flags().Float64SliceVar(&mrdGrid, "grid", yields.DefaultGrid, "metallicities to replicate the table over")
	yieldsCmd.AddCommand(convertMRDCmd)

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run one scenario through the engine and score it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	fitFlags(runCmd)
	engineFlags(runCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run the configured parameter grid and pick the best fit",
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	fitFlags(sweepCmd)
	engineFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", 1, "parallel engine runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id...]",
		Short: "plot abundance tracks of stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRuns,
	}
	axisFlags(plotCmd)
	plotCmd.Flags().StringVar(&catalogPath, "catalog", "", "overlay stars from this catalog")
	plotCmd.Flags().StringVar(&galaxy, "galaxy", "", "galaxy filter")
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "write a figure (.png, .svg) instead of a terminal plot")

	compareCmd := &cobra.Command{
		Use:   "compare [run_a] [run_b]",
		Short: "RMS distance between two stored tracks",
		Args:  cobra.ExactArgs(2),
		RunE:  compareRuns,
	}
	axisFlags(compareCmd)
	compareCmd.Flags().StringVar(&policy, "policy", "", "extrapolation policy (strict, overlap)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run track to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse stored runs in the terminal",
		RunE:  browseRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVarP(&outPath, "out", "o", "", "save the preset to this file")

	rootCmd.AddCommand(dtdCmd, catalogCmd, yieldsCmd, runCmd, sweepCmd, listCmd, plotCmd,
		compareCmd, exportCSVCmd, exportJSONCmd, browseCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&scenarioKind, "kind", "", "DTD kind (prompt, stochastic)")
	f.Float64Var(&ratePerMass, "rate", 0, "events per solar mass formed")
	f.Float64Var(&windowStart, "start", 0, "prompt window start [yr]")
	f.Float64Var(&windowStop, "stop", 0, "prompt window stop [yr]")
	f.Float64Var(&width, "width", 0, "stochastic spike width [yr]")
	f.Float64Var(&tEnd, "t-end", 0, "end of the DTD [yr]")
	f.Float64SliceVar(&events, "events", nil, "stochastic event times [yr]")
	f.StringVar(&yieldTable, "yields", "", "r-process yield table")
	f.BoolVar(&disabled, "disabled", false, "switch the r-process source off")
}

func fitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&catalogPath, "catalog", "", "observational catalog")
	f.StringVar(&galaxy, "galaxy", "", "galaxy filter")
	f.StringVar(&target, "target", "", "ratio to fit, e.g. [Eu/Fe]")
	f.StringVar(&policy, "policy", "", "extrapolation policy (strict, overlap)")
}

func engineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&engineCmd, "engine", "", "engine command")
	f.StringSliceVar(&engineArgs, "engine-arg", nil, "engine argument (repeatable)")
	f.DurationVar(&engineTimeout, "timeout", 0, "per-run engine timeout")
}

func axisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&xAxis, "x", "[Fe/H]", "x column")
	cmd.Flags().StringVar(&yAxis, "y", "", "y column (default: fit target)")
}

// setup resolves the configuration (preset, file, env, then flags)
// and builds the logger and metrics shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	base := config.DefaultConfig()
	if preset != "" {
		base = config.GetPreset(preset)
		if base == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	var err error
	cfg, err = config.LoadOver(base, configFile)
	if err != nil {
		return err
	}
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	mets = metrics.NewManager(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithDurationBuckets(cfg.Metrics.DurationBuckets),
	)
	return nil
}

func applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.DataDir = dataDir
	}
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	if f.Changed("metrics-file") {
		cfg.Metrics.File = metricsFile
	}
	metricsFile = cfg.Metrics.File

	s := &cfg.Scenario
	if f.Changed("kind") {
		s.Kind = scenarioKind
	}
	if f.Changed("rate") {
		s.RatePerMass = ratePerMass
	}
	if f.Changed("start") {
		s.Window.Start = windowStart
	}
	if f.Changed("stop") {
		s.Window.Stop = windowStop
	}
	if f.Changed("width") {
		s.Width = width
	}
	if f.Changed("t-end") {
		s.TEnd = tEnd
	}
	if f.Changed("events") {
		s.Events = events
	}
	if f.Changed("yields") {
		s.YieldTable = yieldTable
	}
	if f.Changed("disabled") {
		s.Enabled = !disabled
	}

	if f.Changed("catalog") {
		cfg.Catalog.Path = catalogPath
	}
	if f.Changed("galaxy") {
		cfg.Catalog.Galaxy = galaxy
	}
	if f.Changed("target") {
		cfg.Fit.Target = target
	}
	if f.Changed("policy") {
		cfg.Fit.Policy = policy
	}
	if f.Changed("engine") {
		cfg.Engine.Command = engineCmd
	}
	if f.Changed("engine-arg") {
		cfg.Engine.Args = engineArgs
	}
	if f.Changed("timeout") {
		cfg.Engine.Timeout = engineTimeout
	}
	if f.Changed("workers") {
		cfg.Sweep.Workers = workers
	}
}
