package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles derives the browser's styles from a theme.
type styles struct {
	title    lipgloss.Style
	subtle   lipgloss.Style
	selected lipgloss.Style
	row      lipgloss.Style
	value    lipgloss.Style
	label    lipgloss.Style
	keyHint  lipgloss.Style
	good     lipgloss.Style
	bad      lipgloss.Style
	panel    lipgloss.Style
	header   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		subtle:   lipgloss.NewStyle().Foreground(t.Muted),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		row:      lipgloss.NewStyle().Foreground(t.Muted),
		value:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label:    lipgloss.NewStyle().Foreground(t.Muted),
		keyHint:  lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		good:     lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		bad:      lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Secondary).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
	}
}

// FitBar renders a bar whose filled share grows as rms approaches best.
// worst maps to an empty bar.
func (s styles) FitBar(rms, best, worst float64, width int) string {
	quality := 1.0
	if worst > best {
		quality = 1 - (rms-best)/(worst-best)
	}
	filled := int(quality*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if quality > 0.5 {
		return s.good.Render(bar)
	}
	return s.bad.Render(bar)
}

// Separator renders a decorative rule
func (s styles) Separator(width int) string {
	if width < 8 {
		return s.subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return s.subtle.Render(left + " ◆ " + right)
}
