package reminder

import (
	"errors"
	"testing"
	"time"

	"anchorcal/internal/model"
)

// 2024-01-01 was a Monday.
func at(day, h, m int) time.Time {
	return time.Date(2024, 1, day, h, m, 0, 0, time.UTC)
}

func workAnchor() model.ScheduleEvent {
	return model.ScheduleEvent{
		ID: "work-mon", Day: model.Monday, Title: "Work",
		StartTime: "09:00", EndTime: "10:00",
		ContextTags: []model.ContextTag{model.TagWork},
	}
}

func TestActiveScenarioOffsetBeforeStart(t *testing.T) {
	s := model.State{
		Anchors:   []model.ScheduleEvent{workAnchor()},
		Reminders: []model.SmartReminder{{ID: "r1", EventID: "work-mon", OffsetMinutes: -10, Status: model.StatusActive}},
	}
	view := Active(s, at(1, 8, 40))
	if len(view) != 1 {
		t.Fatalf("len(view)=%d, want 1", len(view))
	}
	if want := at(1, 8, 50); !view[0].TriggerAt.Equal(want) {
		t.Fatalf("trigger=%v, want %v", view[0].TriggerAt, want)
	}
	if view[0].DNDShifted {
		t.Fatalf("unexpected DND shift")
	}
}

func TestActiveDropsPastOrphanAndTerminal(t *testing.T) {
	until := at(1, 12, 0)
	s := model.State{
		Anchors: []model.ScheduleEvent{workAnchor()},
		Reminders: []model.SmartReminder{
			{ID: "past", EventID: "work-mon", OffsetMinutes: -60, Status: model.StatusActive},
			{ID: "orphan", EventID: "deleted", OffsetMinutes: 0, Status: model.StatusActive},
			{ID: "done", EventID: "work-mon", OffsetMinutes: 30, Status: model.StatusDone},
			{ID: "ignored", EventID: "work-mon", OffsetMinutes: 30, Status: model.StatusIgnored},
			{ID: "snoozed", EventID: "work-mon", OffsetMinutes: -60, Status: model.StatusSnoozed, SnoozedUntil: &until},
		},
	}
	view := Active(s, at(1, 8, 30))
	if len(view) != 1 || view[0].Reminder.ID != "snoozed" {
		t.Fatalf("view=%+v, want only the snoozed reminder", view)
	}
	if !view[0].TriggerAt.Equal(until) {
		t.Fatalf("snoozed trigger=%v, want %v", view[0].TriggerAt, until)
	}
}

func TestActiveKeepsHeldRemindersInThePast(t *testing.T) {
	past := at(1, 6, 0)
	s := model.State{
		Anchors: []model.ScheduleEvent{workAnchor()},
		Reminders: []model.SmartReminder{
			{ID: "p", EventID: "work-mon", Status: model.StatusPaused, SnoozedUntil: &past},
		},
	}
	if got := Active(s, at(1, 11, 0)); len(got) != 1 {
		t.Fatalf("paused reminder with past resume time should stay visible, got %d", len(got))
	}
}

func TestActivePauseGate(t *testing.T) {
	pause := at(1, 23, 0)
	s := model.State{
		Anchors:    []model.ScheduleEvent{workAnchor()},
		PauseUntil: &pause,
	}
	for i := 0; i < 20; i++ {
		s.Reminders = append(s.Reminders, model.SmartReminder{
			ID: "r", EventID: "work-mon", OffsetMinutes: i, Status: model.StatusActive,
		})
	}
	if got := Active(s, at(1, 8, 0)); len(got) != 0 {
		t.Fatalf("paused view has %d entries, want 0", len(got))
	}
	// Gate opens once the pause timestamp has passed.
	if got := Active(s, at(1, 23, 30)); len(got) != 0 {
		t.Fatalf("all nominal triggers are in the past at 23:30, got %d", len(got))
	}
	if got := Active(s, at(1, 8, 0).Add(16*time.Hour)); got == nil {
		t.Fatalf("view must never be nil")
	}
}

func TestActiveDNDShiftScenario(t *testing.T) {
	late := model.ScheduleEvent{ID: "late", Day: model.Monday, Title: "Late call", StartTime: "23:30", EndTime: "23:45"}
	s := model.State{
		Anchors:   []model.ScheduleEvent{late},
		Reminders: []model.SmartReminder{{ID: "r", EventID: "late", Status: model.StatusActive}},
		DND:       []model.DNDWindow{{Day: model.Monday, StartTime: "23:00", EndTime: "07:00"}},
	}
	view := Active(s, at(1, 22, 0))
	if len(view) != 1 {
		t.Fatalf("len(view)=%d, want 1", len(view))
	}
	if want := at(2, 7, 0); !view[0].TriggerAt.Equal(want) {
		t.Fatalf("trigger=%v, want %v", view[0].TriggerAt, want)
	}
	if !view[0].DNDShifted {
		t.Fatalf("expected DND-shifted flag")
	}
}

func TestActiveOrderedByTrigger(t *testing.T) {
	snoozed := at(1, 9, 5)
	s := model.State{
		Anchors: []model.ScheduleEvent{
			workAnchor(),
			{ID: "lunch", Day: model.Monday, Title: "Lunch", StartTime: "12:00", EndTime: "13:00"},
		},
		Reminders: []model.SmartReminder{
			{ID: "c", EventID: "lunch", OffsetMinutes: 0, Status: model.StatusActive},
			{ID: "a", EventID: "work-mon", OffsetMinutes: -5, Status: model.StatusActive},
			{ID: "b", EventID: "lunch", Status: model.StatusSnoozed, SnoozedUntil: &snoozed},
			{ID: "d", EventID: "work-mon", OffsetMinutes: 45, Status: model.StatusActive},
		},
	}
	view := Active(s, at(1, 8, 0))
	want := []string{"a", "b", "d", "c"}
	if len(view) != len(want) {
		t.Fatalf("len(view)=%d, want %d", len(view), len(want))
	}
	for i := range view {
		if view[i].Reminder.ID != want[i] {
			t.Fatalf("view[%d]=%s, want %s", i, view[i].Reminder.ID, want[i])
		}
		if i > 0 && view[i].TriggerAt.Before(view[i-1].TriggerAt) {
			t.Fatalf("view not sorted at %d", i)
		}
	}
}

func TestDueBetween(t *testing.T) {
	view := []Scheduled{
		{TriggerAt: at(1, 9, 0)},
		{TriggerAt: at(1, 9, 1)},
		{TriggerAt: at(1, 9, 2)},
	}
	due := DueBetween(view, at(1, 9, 0), at(1, 9, 1))
	if len(due) != 1 || !due[0].TriggerAt.Equal(at(1, 9, 1)) {
		t.Fatalf("due=%+v", due)
	}
}

func TestApplyDoneAppendsSuccess(t *testing.T) {
	r := model.SmartReminder{ID: "r", Message: "Pack bag", Status: model.StatusActive}
	got, msg, err := Apply(r, Done(), Env{Now: at(1, 8, 0)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != model.StatusDone || len(got.SuccessHistory) != 1 || got.SuccessHistory[0] != model.OutcomeSuccess {
		t.Fatalf("unexpected reminder %+v", got)
	}
	if msg != `Completed "Pack bag".` {
		t.Fatalf("msg=%q", msg)
	}
	if len(r.SuccessHistory) != 0 {
		t.Fatalf("input reminder was mutated")
	}
}

func TestApplySnooze(t *testing.T) {
	now := at(1, 8, 0)
	r := model.SmartReminder{ID: "r", Status: model.StatusActive}
	got, _, err := Apply(r, Snooze(10), Env{Now: now})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != model.StatusSnoozed || !got.SnoozedUntil.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected snooze state %+v", got)
	}
	if len(got.SnoozeHistory) != 1 || got.SnoozeHistory[0] != 10 {
		t.Fatalf("SnoozeHistory=%v", got.SnoozeHistory)
	}
	if got.SuccessHistory[len(got.SuccessHistory)-1] != model.OutcomeSnoozed {
		t.Fatalf("missing snoozed outcome")
	}
	if _, _, err := Apply(r, Snooze(0), Env{Now: now}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("zero snooze err=%v, want ErrInvalidAction", err)
	}
}

func TestApplyPauseDoesNotAppendHistory(t *testing.T) {
	r := model.SmartReminder{ID: "r", Status: model.StatusActive, SuccessHistory: []model.Outcome{model.OutcomeSuccess}}
	got, _, err := Apply(r, Pause(), Env{Now: at(1, 22, 0)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != model.StatusPaused || !got.SnoozedUntil.Equal(at(2, 9, 0)) {
		t.Fatalf("unexpected pause state %+v", got)
	}
	if len(got.SuccessHistory) != 1 {
		t.Fatalf("pause must not append history")
	}
}

func TestApplyIgnoreAndTerminal(t *testing.T) {
	r := model.SmartReminder{ID: "r", Status: model.StatusActive}
	got, msg, err := Apply(r, Ignore(), Env{Now: at(1, 8, 0)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != model.StatusIgnored || got.SuccessHistory[0] != model.OutcomeIgnored || msg != "" {
		t.Fatalf("unexpected ignore result %+v %q", got, msg)
	}
	if _, _, err := Apply(got, Done(), Env{Now: at(1, 8, 0)}); !errors.Is(err, ErrTerminal) {
		t.Fatalf("done after ignore err=%v, want ErrTerminal", err)
	}
	// Lock toggling is still allowed on terminal reminders.
	if _, _, err := Apply(got, ToggleLock(), Env{Now: at(1, 8, 0)}); err != nil {
		t.Fatalf("toggle_lock on ignored: %v", err)
	}
}

func TestApplyToggleLock(t *testing.T) {
	r := model.SmartReminder{ID: "r", Message: "Stretch", Status: model.StatusActive, AllowExploration: true}
	locked, msg, _ := Apply(r, ToggleLock(), Env{})
	if !locked.IsLocked || locked.AllowExploration || msg != `Locked "Stretch".` {
		t.Fatalf("lock: %+v %q", locked, msg)
	}
	unlocked, msg, _ := Apply(locked, ToggleLock(), Env{})
	if unlocked.IsLocked || !unlocked.AllowExploration || msg != `Unlocked "Stretch".` {
		t.Fatalf("unlock: %+v %q", unlocked, msg)
	}
	if len(unlocked.SuccessHistory) != 0 {
		t.Fatalf("toggle_lock must not append history")
	}
}

func TestApplyRevertExploration(t *testing.T) {
	orig := -15
	r := model.SmartReminder{ID: "r", OffsetMinutes: -25, IsExploratory: true, OriginalOffsetMinutes: &orig, Status: model.StatusActive}
	got, _, err := Apply(r, RevertExploration(), Env{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.OffsetMinutes != -15 || got.IsExploratory || got.OriginalOffsetMinutes != nil {
		t.Fatalf("unexpected revert result %+v", got)
	}
	if _, _, err := Apply(got, RevertExploration(), Env{}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("second revert err=%v, want ErrInvalidAction", err)
	}
}

func TestLaterTime(t *testing.T) {
	dnd := []model.DNDWindow{{Day: model.Monday, StartTime: "22:00", EndTime: "07:00"}}

	// No DND: plain three hours.
	if got := LaterTime(nil, at(1, 10, 0)); !got.Equal(at(1, 13, 0)) {
		t.Fatalf("no DND later=%v", got)
	}
	// Capped 15 minutes before DND start.
	if got := LaterTime(dnd, at(1, 20, 0)); !got.Equal(at(1, 21, 45)) {
		t.Fatalf("capped later=%v, want 21:45", got)
	}
	// Cap falls before now: fall back to one hour.
	if got := LaterTime(dnd, at(1, 21, 50)); !got.Equal(at(1, 22, 50)) {
		t.Fatalf("fallback later=%v, want 22:50", got)
	}
	// DND start already passed today: cap uses tomorrow's start.
	if got := LaterTime(dnd, at(1, 23, 0)); !got.Equal(at(2, 2, 0)) {
		t.Fatalf("after DND start later=%v, want 02:00 next day", got)
	}
}
