package model

import "time"

// State is the full snapshot the engines evaluate. Callers replace it as a
// whole, so every transform works on a Clone.
type State struct {
	Anchors    []ScheduleEvent `json:"scheduleEvents"`
	Reminders  []SmartReminder `json:"smartReminders"`
	DND        []DNDWindow     `json:"dndWindows"`
	PauseUntil *time.Time      `json:"pauseUntil,omitempty"`
}

func (s State) Clone() State {
	out := State{
		Anchors:   CloneAnchors(s.Anchors),
		Reminders: CloneReminders(s.Reminders),
		DND:       CloneDND(s.DND),
	}
	if s.PauseUntil != nil {
		t := *s.PauseUntil
		out.PauseUntil = &t
	}
	return out
}

// AnchorIndex maps anchor ids for reminder lookups.
func (s State) AnchorIndex() map[string]ScheduleEvent {
	return IndexAnchors(s.Anchors)
}

func IndexAnchors(anchors []ScheduleEvent) map[string]ScheduleEvent {
	idx := make(map[string]ScheduleEvent, len(anchors))
	for _, a := range anchors {
		idx[a.ID] = a
	}
	return idx
}

func FindAnchor(anchors []ScheduleEvent, id string) (int, bool) {
	for i, a := range anchors {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

func FindReminder(reminders []SmartReminder, id string) (int, bool) {
	for i, r := range reminders {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}

func CloneAnchors(in []ScheduleEvent) []ScheduleEvent {
	if in == nil {
		return nil
	}
	out := make([]ScheduleEvent, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func CloneReminders(in []SmartReminder) []SmartReminder {
	if in == nil {
		return nil
	}
	out := make([]SmartReminder, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func CloneDND(in []DNDWindow) []DNDWindow {
	if in == nil {
		return nil
	}
	return append([]DNDWindow(nil), in...)
}
