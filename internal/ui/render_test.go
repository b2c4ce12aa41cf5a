package ui

import (
	"strings"
	"testing"
	"time"

	"anchorcal/internal/model"
	"anchorcal/internal/reminder"
)

func TestPaletteFallsBackToCreative(t *testing.T) {
	if got, want := PaletteFor("Unknown"), PaletteFor(model.ThemeCreative); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if PaletteFor(model.ThemeFocus) == PaletteFor(model.ThemeEvening) {
		t.Fatalf("focus and evening share a palette")
	}
}

func TestRenderStatus(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) // Monday
	work := model.ScheduleEvent{ID: "w", Day: model.Monday, Title: "Deep work", StartTime: "09:00", EndTime: "11:00"}
	gym := model.ScheduleEvent{ID: "g", Day: model.Tuesday, Title: "Gym", StartTime: "18:00", EndTime: "19:00"}
	st := Status{
		Now:   now,
		Theme: model.ThemeFocus,
		State: model.State{Anchors: []model.ScheduleEvent{work, gym}},
		Active: []reminder.Scheduled{{
			Reminder:  model.SmartReminder{ID: "r", EventID: "w", Message: "Stand up", Status: model.StatusActive},
			Anchor:    work,
			TriggerAt: now.Add(30 * time.Minute),
		}},
	}

	out := RenderStatus(st)
	for _, want := range []string{"Deep work", "(now)", "Stand up", "Focus"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Gym") {
		t.Fatalf("tuesday anchor rendered on monday:\n%s", out)
	}
}
