package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"anchorcal/internal/model"
	"anchorcal/internal/reminder"
	"anchorcal/internal/theme"
	"anchorcal/internal/undo"
)

// Status is everything the status command prints.
type Status struct {
	Now     time.Time
	Theme   model.Theme
	State   model.State
	Active  []reminder.Scheduled
	History []undo.Entry
}

// RenderStatus lays out today's anchors, the active reminders and the
// recent changes.
func RenderStatus(st Status) string {
	s := NewStyles(st.Theme)
	var b strings.Builder

	today := model.DayOf(st.Now)
	b.WriteString(s.Title.Render(fmt.Sprintf("%s %s", today, st.Now.Format("15:04"))))
	b.WriteString("  ")
	b.WriteString(s.Badge.Render(string(st.Theme)))
	b.WriteString("\n")
	if reminder.Paused(st.State.PauseUntil, st.Now) {
		b.WriteString(s.Warn.Render("Reminders paused until " + st.State.PauseUntil.Format("Mon 15:04")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Panel.Render(anchorsPanel(s, st, today)))
	b.WriteString("\n")
	b.WriteString(s.Panel.Render(remindersPanel(s, st.Active)))
	b.WriteString("\n")
	if len(st.History) > 0 {
		b.WriteString(s.Panel.Render(historyPanel(s, st.History)))
		b.WriteString("\n")
	}
	return b.String()
}

func anchorsPanel(s Styles, st Status, today model.Day) string {
	running := make(map[string]bool)
	for _, a := range theme.RunningAt(st.State.Anchors, st.Now) {
		running[a.ID] = true
	}

	lines := []string{s.H2.Render("Today")}
	for _, a := range st.State.Anchors {
		if a.Day != today {
			continue
		}
		line := fmt.Sprintf("%s-%s  %s", a.StartTime, a.EndTime, a.Title)
		if running[a.ID] {
			line = s.Key.Render(line + "  (now)")
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		lines = append(lines, s.Muted.Render("No anchors today."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func remindersPanel(s Styles, active []reminder.Scheduled) string {
	lines := []string{s.H2.Render("Reminders")}
	for _, sc := range active {
		line := fmt.Sprintf("%s  %s  %s", sc.TriggerAt.Format("Mon 15:04"), sc.Reminder.Message, s.Muted.Render(sc.Anchor.Title))
		if sc.DNDShifted {
			line += " " + s.Warn.Render("after DND")
		}
		if sc.Reminder.Status != model.StatusActive {
			line += " " + s.StatusText(sc.Reminder.Status)
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		lines = append(lines, s.Muted.Render("Nothing coming up."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func historyPanel(s Styles, history []undo.Entry) string {
	lines := []string{s.H2.Render("Recent changes")}
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("%s  %s", s.Muted.Render(e.At.Format("15:04")), e.Description))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
