package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/config"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/engine"
	"github.com/san-kum/rprocfit/internal/experiment"
	"github.com/san-kum/rprocfit/internal/plot"
	"github.com/san-kum/rprocfit/internal/storage"
	"github.com/san-kum/rprocfit/internal/sweep"
	"github.com/san-kum/rprocfit/internal/track"
	"github.com/san-kum/rprocfit/internal/viz"
	"github.com/san-kum/rprocfit/internal/yields"
)

const (
	plotWidth  = 70
	plotHeight = 12
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#00FF9F")).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#FF00FF")).
	Padding(0, 1)

func showDTD(cmd *cobra.Command, args []string) error {
	name, kind := cfg.Scenario.Name, cfg.Scenario.Kind
	var table *dtd.Table
	if len(args) > 0 {
		st := storage.New(cfg.DataDir)
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		if table, err = st.LoadDTD(args[0]); err != nil {
			return err
		}
		if table == nil {
			return fmt.Errorf("run %s has the r-process source disabled", args[0])
		}
		name, kind = meta.Scenario.Name, meta.Scenario.Kind
	} else {
		var err error
		if table, err = experiment.NewRegistry().Build(cfg.Scenario); err != nil {
			return err
		}
	}
	curve, err := table.Curve(0, 0)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(outPath)); {
	case outPath == "":
	case ext == ".json":
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
	case ext == ".yaml" || ext == ".yml":
		data, err := yaml.Marshal(table)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
	default:
		err := plot.Save(outPath, func(w io.Writer, f plot.Format) error {
			return plot.DTD(w, f, curve, name)
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("scenario: %s (%s)\n", name, kind)
	fmt.Printf("metallicities: %v\n\n", []float64(table.Grid))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T [yr]\tRATE")
	for _, p := range curve {
		fmt.Fprintf(w, "%.6e\t%g\n", p.T, p.Rate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(plot.ASCII(sampleCurve(curve, plotWidth), "relative rate vs delay", plotWidth, plotHeight/2))
	if outPath != "" {
		fmt.Printf("\nwritten: %s\n", outPath)
	}
	return nil
}

// sampleCurve evaluates c at n evenly spaced times so narrow spikes show up
// in the terminal plot.
func sampleCurve(c dtd.Curve, n int) []float64 {
	out := make([]float64, n)
	end := c.End()
	for i := range out {
		out[i] = c.Rate(end * float64(i) / float64(n-1))
	}
	return out
}

func convertCatalog(cmd *cobra.Command, args []string) error {
	g, _ := cmd.Flags().GetString("galaxy")
	n, err := catalog.Convert(args[0], args[1], catalog.Options{Galaxy: g, Require: require})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d %s stars to %s\n", n, g, args[1])
	return nil
}

func showCatalog(cmd *cobra.Command, args []string) error {
	path := cfg.Catalog.Path
	if len(args) > 0 {
		path = args[0]
	}
	stars, err := loadCatalog(path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tGALAXY\t[Fe/H]\t%s\n", cfg.Fit.Target)
	for _, s := range stars {
		v, ok := s.Ratio(cfg.Fit.Target)
		val := "-"
		if ok {
			val = fmt.Sprintf("%.2f ± %.2f", v, s.Error(cfg.Fit.Target))
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", s.ID, s.Galaxy, s.FeH, val)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d stars, elements: %s\n", len(stars), strings.Join(catalog.ElementNames(stars), " "))
	return nil
}

func loadCatalog(path string) ([]catalog.Star, error) {
	if path == "" {
		return nil, fmt.Errorf("no catalog configured (set catalog.path or --catalog)")
	}
	stars, err := catalog.Load(path, catalog.Options{Galaxy: cfg.Catalog.Galaxy, Require: cfg.Catalog.Require})
	if err != nil {
		return nil, err
	}
	catalog.Sort(stars)
	mets.SetCatalogStars(len(stars))
	logger.Debug("catalog loaded", zap.String("path", path), zap.Int("stars", len(stars)))
	return stars, nil
}

func convertMRD(cmd *cobra.Command, args []string) error {
	conv, err := yields.ConvertMRD(args[0], args[1], mrdGrid)
	if err != nil {
		return err
	}
	if conv.Cached {
		fmt.Printf("%s exists, left untouched\n", conv.Path)
		return nil
	}
	fmt.Printf("wrote %d isotopes for %d metallicities to %s\n", conv.Isotopes, len(mrdGrid), conv.Path)
	return nil
}

func newEngine() (engine.Engine, error) {
	if cfg.Engine.Command == "" {
		return nil, fmt.Errorf("no engine command configured (set engine.command or --engine)")
	}
	c := engine.NewCommand(cfg.Engine.Command, cfg.Engine.Args...)
	c.Dir = cfg.Engine.Dir
	c.Timeout = cfg.Engine.Timeout
	c.Logger = logger
	return c, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		cfg.Scenario.Name = args[0]
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	opts := []experiment.Option{
		experiment.WithTarget(cfg.Fit.Target),
		experiment.WithPolicy(cfg.Policy()),
		experiment.WithLogger(logger),
		experiment.WithRecorder(mets),
	}
	if cfg.Catalog.Path != "" {
		stars, err := loadCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		opts = append(opts, experiment.WithCatalog(stars))
	}

	exp := experiment.New(cfg.Scenario, eng, opts...)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if t := exp.Table(); t != nil {
		if c, err := t.Curve(0, 0); err == nil {
			fmt.Printf("dtd: %d points over %d metallicities, %.3g yr\n", len(c), len(t.Grid), c.End())
		}
	} else {
		fmt.Println("dtd: r-process source disabled")
	}
	fmt.Printf("running %s...\n", cfg.Scenario.Name)
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d, elapsed: %s\n", len(res.Track.Samples), res.Elapsed.Round(time.Millisecond))
	if res.Scored {
		mets.SetBestRMS(res.Target, res.Score.RMS)
		fmt.Printf("%s rms: %.4f over %d stars (%d excluded)\n", res.Target, res.Score.RMS, res.Score.N, res.Score.Excluded)
	}
	printTrack(res.Track, "[Fe/H]", res.Target)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	grid, err := cfg.Sweep.Grid()
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}
	stars, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	runner := &sweep.Runner{
		Engine:   eng,
		Stars:    stars,
		Target:   cfg.Fit.Target,
		Policy:   cfg.Policy(),
		Workers:  cfg.Sweep.Workers,
		Recorder: mets,
		Logger:   logger,
	}
	mets.SetCandidates(len(grid.Candidates()))

	ctx, cancel := signalContext()
	defer cancel()

	out, err := runner.Grid(ctx, cfg.Scenario, grid)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "#\tID"
	for _, name := range grid.Names() {
		header += "\t" + strings.ToUpper(name)
	}
	fmt.Fprintln(w, header+"\tRMS\tN\t")
	var bestID string
	for i, res := range out.Results {
		runID, err := st.Save(res)
		if err != nil {
			return err
		}
		mark := ""
		if i == out.Best {
			mark = "*"
			bestID = runID
		}
		row := fmt.Sprintf("%d\t%s", i, runID)
		for _, name := range grid.Names() {
			row += fmt.Sprintf("\t%g", res.Params[name])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%d\t%s\n", row, res.Score.RMS, res.Score.N, mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best := out.BestResult()
	mets.SetBestRMS(best.Target, best.Score.RMS)
	fmt.Println()
	fmt.Println(bannerStyle.Render(fmt.Sprintf("best fit %s  %s rms %.4f  %v", bestID, best.Target, best.Score.RMS, map[string]float64(best.Params))))
	printTrack(best.Track, "[Fe/H]", best.Target)
	return nil
}

func printTrack(t *track.Track, x, y string) {
	graph, err := plot.TrackASCII(t, x, y, plotWidth, plotHeight)
	if err != nil {
		logger.Debug("no terminal plot", zap.Error(err))
		return
	}
	fmt.Println()
	fmt.Println(graph)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tKIND\tTIME\tRATE\tTARGET\tRMS\tN")

	for _, run := range runs {
		rms := "-"
		if run.Scored {
			rms = fmt.Sprintf("%.4f", run.Score.RMS)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2e\t%s\t%s\t%d\n",
			run.ID,
			run.Scenario.Name,
			run.Scenario.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Scenario.RatePerMass,
			run.Target,
			rms,
			run.Score.N,
		)
	}

	return w.Flush()
}

func plotRuns(cmd *cobra.Command, args []string) error {
	y := yAxis
	if y == "" {
		y = cfg.Fit.Target
	}

	st := storage.New(cfg.DataDir)
	tracks := make([]*track.Track, 0, len(args))
	for _, runID := range args {
		t, err := st.LoadTrack(runID)
		if err != nil {
			return err
		}
		t.Label = runID
		tracks = append(tracks, t)
	}

	if outPath == "" {
		for _, t := range tracks {
			fmt.Printf("run: %s\n", t.Label)
			printTrack(t, xAxis, y)
			fmt.Println()
		}
		return nil
	}

	var stars []catalog.Star
	if cfg.Catalog.Path != "" {
		var err error
		if stars, err = loadCatalog(cfg.Catalog.Path); err != nil {
			return err
		}
	}
	err := plot.Save(outPath, func(w io.Writer, f plot.Format) error {
		return plot.Abundance(w, f, tracks, stars, xAxis, y)
	})
	if err != nil {
		return err
	}
	fmt.Printf("written: %s\n", outPath)
	return nil
}

func compareRuns(cmd *cobra.Command, args []string) error {
	y := yAxis
	if y == "" {
		y = cfg.Fit.Target
	}
	st := storage.New(cfg.DataDir)
	a, err := st.LoadTrack(args[0])
	if err != nil {
		return err
	}
	b, err := st.LoadTrack(args[1])
	if err != nil {
		return err
	}

	score, err := compare.Tracks(a, b, xAxis, y, cfg.Policy())
	if err != nil {
		return err
	}
	fmt.Printf("%s vs %s on %s(%s)\n", args[0], args[1], y, xAxis)
	fmt.Printf("rms: %.4f over %d points (%d excluded)\n", score.RMS, score.N, score.Excluded)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	t, err := st.LoadTrack(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, t)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	t, err := st.LoadTrack(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, t)
}

func browseRuns(cmd *cobra.Command, args []string) error {
	return viz.Run(storage.New(cfg.DataDir), cfg.Fit.Target)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("presets:")
		for _, p := range config.ListPresets() {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}

	p := config.GetPreset(args[0])
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if outPath != "" {
		if err := config.Save(p, outPath); err != nil {
			return err
		}
		fmt.Printf("written: %s\n", outPath)
		return nil
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
