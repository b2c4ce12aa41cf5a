package theme

import (
	"testing"
	"time"

	"anchorcal/internal/model"
)

// 2024-01-03 was a Wednesday.
func wed(h, m int) time.Time {
	return time.Date(2024, 1, 3, h, m, 0, 0, time.UTC)
}

func tags(t ...model.ContextTag) []model.ContextTag { return t }

func TestSelectEveningBeatsEverything(t *testing.T) {
	c := Context{
		Now:         wed(20, 0),
		ActiveChunk: &model.Chunk{EnergyTag: model.EnergyAdmin},
		DND:         []model.DNDWindow{{Day: model.Wednesday, StartTime: "19:30", EndTime: "21:00"}},
	}
	if got := Select(c); got != model.ThemeEvening {
		t.Fatalf("Select at 20:00 = %s, want Evening", got)
	}
	c.Now = wed(4, 59)
	if got := Select(c); got != model.ThemeEvening {
		t.Fatalf("Select at 04:59 = %s, want Evening", got)
	}
}

func TestSelectRelaxedRunningAnchor(t *testing.T) {
	anchors := []model.ScheduleEvent{
		{ID: "lunch", Day: model.Wednesday, Title: "Lunch walk", StartTime: "13:00", EndTime: "14:00", ContextTags: tags(model.TagRelaxed)},
	}
	now := wed(13, 50)
	c := Context{Now: now, Anchors: anchors, Running: RunningAt(anchors, now)}
	if got := Select(c); got != model.ThemeRecovery {
		t.Fatalf("Select = %s, want Recovery", got)
	}
}

func TestSelectDNDFocus(t *testing.T) {
	c := Context{
		Now:         wed(12, 0),
		ActiveChunk: &model.Chunk{EnergyTag: model.EnergyErrand},
		DND:         []model.DNDWindow{{Day: model.Wednesday, StartTime: "11:00", EndTime: "13:00"}},
	}
	if got := Select(c); got != model.ThemeFocus {
		t.Fatalf("Select = %s, want Focus", got)
	}
}

func TestSelectPreEventFocus(t *testing.T) {
	anchors := []model.ScheduleEvent{
		{ID: "chill", Day: model.Wednesday, StartTime: "10:20", EndTime: "10:40", ContextTags: tags(model.TagRelaxed)},
		{ID: "work", Day: model.Wednesday, StartTime: "10:20", EndTime: "11:00", ContextTags: tags(model.TagWork)},
		{ID: "other-day", Day: model.Thursday, StartTime: "10:05", EndTime: "11:00", ContextTags: tags(model.TagWork)},
	}
	c := Context{Now: wed(10, 0), Anchors: anchors, ActiveChunk: &model.Chunk{EnergyTag: model.EnergyErrand}}
	if got := Select(c); got != model.ThemeFocus {
		t.Fatalf("Select = %s, want Focus", got)
	}

	// Too far away: falls through to the chunk tier.
	c.Now = wed(9, 40)
	if got := Select(c); got != model.ThemeRecovery {
		t.Fatalf("Select at 09:40 = %s, want Recovery from errand chunk", got)
	}
}

func TestSelectChunkEnergy(t *testing.T) {
	cases := []struct {
		tag  model.EnergyTag
		want model.Theme
	}{
		{model.EnergyTedious, model.ThemeFocus},
		{model.EnergyAdmin, model.ThemeFocus},
		{model.EnergyCreative, model.ThemeCreative},
		{model.EnergySocial, model.ThemeCreative},
		{model.EnergyErrand, model.ThemeRecovery},
		{"Unknown", model.ThemeCreative},
	}
	for _, tc := range cases {
		c := Context{Now: wed(11, 0), ActiveChunk: &model.Chunk{EnergyTag: tc.tag}}
		if got := Select(c); got != tc.want {
			t.Fatalf("energy %s: got %s, want %s", tc.tag, got, tc.want)
		}
	}

	// A completed chunk is ignored.
	c := Context{Now: wed(11, 0), ActiveChunk: &model.Chunk{EnergyTag: model.EnergyAdmin, IsComplete: true}}
	if got := Select(c); got != model.ThemeCreative {
		t.Fatalf("completed chunk: got %s, want Creative", got)
	}
}

func TestSelectRunningSubPriorityIgnoresOrder(t *testing.T) {
	running := []model.ScheduleEvent{
		{ID: "1", ContextTags: tags(model.TagLowEnergy)},
		{ID: "2", ContextTags: tags(model.TagRelaxed)},
		{ID: "3", ContextTags: tags(model.TagRushed)},
	}
	if got := Select(Context{Now: wed(15, 0), Running: running}); got != model.ThemeFocus {
		t.Fatalf("Rushed should win, got %s", got)
	}
	if got := Select(Context{Now: wed(15, 0), Running: running[:2]}); got != model.ThemeRecovery {
		t.Fatalf("Relaxed/LowEnergy should give Recovery, got %s", got)
	}
}

func TestSelectDefault(t *testing.T) {
	if got := Select(Context{Now: wed(15, 0)}); got != model.ThemeCreative {
		t.Fatalf("default = %s, want Creative", got)
	}
}

func TestRunningAt(t *testing.T) {
	anchors := []model.ScheduleEvent{
		{ID: "a", Day: model.Wednesday, StartTime: "09:00", EndTime: "10:00"},
		{ID: "b", Day: model.Wednesday, StartTime: "10:00", EndTime: "11:00"},
		{ID: "c", Day: model.Tuesday, StartTime: "09:00", EndTime: "11:00"},
	}
	got := RunningAt(anchors, wed(10, 0))
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("RunningAt(10:00)=%+v, want only b", got)
	}
}
