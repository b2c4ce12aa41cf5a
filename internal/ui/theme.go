package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"anchorcal/internal/model"
)

// Palette is the color set of one theme. The agenda page uses the same
// values as CSS colors.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
}

var palettes = map[model.Theme]Palette{
	model.ThemeFocus:    {Background: "#0f172a", Foreground: "#e2e8f0", Accent: "#38bdf8", Muted: "#64748b"},
	model.ThemeCreative: {Background: "#fff7ed", Foreground: "#431407", Accent: "#f97316", Muted: "#a8a29e"},
	model.ThemeRecovery: {Background: "#f0fdf4", Foreground: "#14532d", Accent: "#22c55e", Muted: "#86a895"},
	model.ThemeEvening:  {Background: "#1e1b2e", Foreground: "#ede9fe", Accent: "#a78bfa", Muted: "#6b6485"},
}

// PaletteFor returns t's palette; unknown themes get Creative's.
func PaletteFor(t model.Theme) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[model.ThemeCreative]
}

var (
	cGood = lipgloss.Color("42")
	cWarn = lipgloss.Color("214")
	cBad  = lipgloss.Color("196")
)

// Styles are the CLI styles for one theme.
type Styles struct {
	Title lipgloss.Style
	H2    lipgloss.Style
	Key   lipgloss.Style
	Muted lipgloss.Style
	Good  lipgloss.Style
	Warn  lipgloss.Style
	Bad   lipgloss.Style
	Badge lipgloss.Style
	Panel lipgloss.Style
}

func NewStyles(t model.Theme) Styles {
	p := PaletteFor(t)
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		H2:    lipgloss.NewStyle().Bold(true).Foreground(p.Foreground),
		Key:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Muted: lipgloss.NewStyle().Foreground(p.Muted),
		Good:  lipgloss.NewStyle().Bold(true).Foreground(cGood),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(cWarn),
		Bad:   lipgloss.NewStyle().Bold(true).Foreground(cBad),
		Badge: lipgloss.NewStyle().Bold(true).Foreground(p.Background).Background(p.Accent).Padding(0, 1),
		Panel: lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Muted).Padding(0, 1),
	}
}

func (s Styles) LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", s.Key.Render(label+":"), value)
}

// StatusText colors a reminder status.
func (s Styles) StatusText(status model.ReminderStatus) string {
	switch status {
	case model.StatusDone:
		return s.Good.Render(string(status))
	case model.StatusActive:
		return s.H2.Render(string(status))
	case model.StatusSnoozed, model.StatusPaused:
		return s.Warn.Render(string(status))
	case model.StatusIgnored:
		return s.Bad.Render(string(status))
	default:
		return s.Muted.Render(string(status))
	}
}
