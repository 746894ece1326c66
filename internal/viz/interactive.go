package viz

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rprocfit/internal/plot"
	"github.com/san-kum/rprocfit/internal/storage"
	"github.com/san-kum/rprocfit/internal/track"
)

const (
	stateList = iota
	stateDetail
)

// TrackLoader fetches the track stored for a run.
type TrackLoader func(runID string) (*track.Track, error)

type Browser struct {
	state, cursor int
	runs          []storage.RunMetadata
	load          TrackLoader
	target        string
	xAxis         string
	theme         int
	st            styles
	current       *track.Track
	err           error
	width, height int
}

// NewBrowser ranks runs by RMS and browses them. target is the ratio plotted
// in the detail view; runs carry their own target when it is empty.
func NewBrowser(runs []storage.RunMetadata, load TrackLoader, target string) Browser {
	ranked := append([]storage.RunMetadata(nil), runs...)
	storage.Rank(ranked)
	return Browser{
		runs:   ranked,
		load:   load,
		target: target,
		xAxis:  track.AxisFeH,
		st:     newStyles(Themes[0]),
		width:  80,
		height: 24,
	}
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
		m.st = newStyles(Themes[m.theme])
		return m, nil
	}

	switch m.state {
	case stateList:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.runs)-1 {
				m.cursor++
			}
		case "enter", " ":
			if len(m.runs) == 0 {
				return m, nil
			}
			m.current, m.err = m.load(m.runs[m.cursor].ID)
			m.state = stateDetail
		}
	case stateDetail:
		switch msg.String() {
		case "esc", "backspace":
			m.state, m.current, m.err = stateList, nil, nil
		case "x":
			if m.xAxis == track.AxisFeH {
				m.xAxis = track.AxisTime
			} else {
				m.xAxis = track.AxisFeH
			}
		}
	}
	return m, nil
}

func (m Browser) View() string {
	if m.state == stateDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m Browser) viewList() string {
	var b strings.Builder
	b.WriteString("\n  " + m.st.title.Render("RPROCFIT") + "  " + m.st.subtle.Render(fmt.Sprintf("%d runs, best fit first", len(m.runs))) + "\n")
	b.WriteString("  " + m.st.Separator(min(m.width-4, 60)) + "\n\n")

	if len(m.runs) == 0 {
		b.WriteString("  " + m.st.subtle.Render("no runs found") + "\n")
		return b.String() + m.hints("q", "quit")
	}

	best, worst := m.rmsBounds()
	for i, run := range m.runs {
		score := m.st.subtle.Render("   unscored")
		bar := ""
		if run.Scored {
			score = fmt.Sprintf("rms %7.4f", run.Score.RMS)
			bar = m.st.FitBar(run.Score.RMS, best, worst, 12)
		}
		line := fmt.Sprintf("%-32s %-11s %s", truncate(run.ID, 32), run.Scenario.Kind, score)
		if i == m.cursor {
			b.WriteString("  " + m.st.title.Render("▸") + " " + m.st.selected.Render(line) + " " + bar + "\n")
		} else {
			b.WriteString("    " + m.st.row.Render(line) + " " + bar + "\n")
		}
	}
	return b.String() + m.hints("j/k", "navigate", "enter", "show", "t", "theme", "q", "quit")
}

func (m Browser) viewDetail() string {
	run := m.runs[m.cursor]
	var b strings.Builder
	b.WriteString("\n  " + m.st.title.Render(run.ID) + "\n")
	b.WriteString("  " + m.st.Separator(min(m.width-4, 60)) + "\n")

	b.WriteString(fmt.Sprintf("  %s %s   %s %s\n",
		m.st.label.Render("scenario"), m.st.value.Render(run.Scenario.Name),
		m.st.label.Render("kind"), m.st.value.Render(run.Scenario.Kind)))
	for _, name := range sortedKeys(run.Params) {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.st.label.Render(fmt.Sprintf("%-14s", name)), m.st.value.Render(fmt.Sprintf("%.4g", run.Params[name]))))
	}
	if run.Scored {
		b.WriteString(fmt.Sprintf("  %s %s  %s\n",
			m.st.label.Render(fmt.Sprintf("%-14s", "rms "+run.Target)),
			m.st.value.Render(fmt.Sprintf("%.4f", run.Score.RMS)),
			m.st.subtle.Render(fmt.Sprintf("(%d stars, %d excluded)", run.Score.N, run.Score.Excluded))))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString("  " + m.st.bad.Render(m.err.Error()) + "\n")
	case m.current != nil:
		y := m.plotTarget(run)
		graph, err := plot.TrackASCII(m.current, m.xAxis, y, max(m.width-16, 20), max(m.height/3, 6))
		if err != nil {
			b.WriteString("  " + m.st.bad.Render(err.Error()) + "\n")
		} else {
			b.WriteString(m.st.panel.Render(graph) + "\n")
		}
	}
	return b.String() + m.hints("x", "axis", "t", "theme", "esc", "back", "q", "quit")
}

func (m Browser) plotTarget(run storage.RunMetadata) string {
	if m.target != "" {
		return m.target
	}
	if run.Target != "" {
		return run.Target
	}
	if ratios := m.current.Ratios(); len(ratios) > 0 {
		return ratios[0]
	}
	return "[Eu/Fe]"
}

func (m Browser) rmsBounds() (float64, float64) {
	best, worst := 0.0, 0.0
	first := true
	for _, r := range m.runs {
		if !r.Scored {
			continue
		}
		if first {
			best, worst, first = r.Score.RMS, r.Score.RMS, false
			continue
		}
		best = min(best, r.Score.RMS)
		worst = max(worst, r.Score.RMS)
	}
	return best, worst
}

func (m Browser) hints(pairs ...string) string {
	var b strings.Builder
	b.WriteString("\n  ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(m.st.title.Render(pairs[i]) + m.st.keyHint.Render(" "+pairs[i+1]+"  "))
	}
	return b.String() + "\n"
}

// Cursor reports the selected run, mostly for tests.
func (m Browser) Cursor() (int, string) {
	if len(m.runs) == 0 {
		return -1, ""
	}
	return m.cursor, m.runs[m.cursor].ID
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Run browses the runs in st until the user quits.
func Run(st *storage.Store, target string) error {
	runs, err := st.List()
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewBrowser(runs, st.LoadTrack, target), tea.WithAltScreen()).Run()
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
