package model

import "time"

type ReminderStatus string

const (
	StatusActive  ReminderStatus = "active"
	StatusSnoozed ReminderStatus = "snoozed"
	StatusPaused  ReminderStatus = "paused"
	StatusDone    ReminderStatus = "done"
	StatusIgnored ReminderStatus = "ignored"
)

// Live reports whether the status belongs in the active view.
func (s ReminderStatus) Live() bool {
	return s == StatusActive || s == StatusSnoozed || s == StatusPaused
}

// Outcome is one entry of a reminder's success history.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSnoozed Outcome = "snoozed"
	OutcomeIgnored Outcome = "ignored"
)

// SmartReminder fires at an offset from its anchor's start. EventID is a
// weak reference: the anchor may have been deleted.
type SmartReminder struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`

	// OffsetMinutes is relative to the anchor start: negative is before.
	OffsetMinutes int    `json:"offsetMinutes"`
	Message       string `json:"message"`
	Why           string `json:"why"`

	Status       ReminderStatus `json:"status"`
	SnoozedUntil *time.Time     `json:"snoozedUntil,omitempty"`

	SuccessHistory []Outcome `json:"successHistory,omitempty"`
	SnoozeHistory  []int     `json:"snoozeHistory,omitempty"`

	IsLocked         bool `json:"isLocked"`
	AllowExploration bool `json:"allowExploration"`

	IsExploratory         bool `json:"isExploratory,omitempty"`
	OriginalOffsetMinutes *int `json:"originalOffsetMinutes,omitempty"`

	IsStackedHabit bool   `json:"isStackedHabit,omitempty"`
	HabitID        string `json:"habitId,omitempty"`

	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
}

// SuccessRate is the share of "success" outcomes; 0 for an empty history.
func (r SmartReminder) SuccessRate() float64 {
	if len(r.SuccessHistory) == 0 {
		return 0
	}
	n := 0
	for _, o := range r.SuccessHistory {
		if o == OutcomeSuccess {
			n++
		}
	}
	return float64(n) / float64(len(r.SuccessHistory))
}

func (r SmartReminder) Clone() SmartReminder {
	out := r
	if r.SnoozedUntil != nil {
		t := *r.SnoozedUntil
		out.SnoozedUntil = &t
	}
	if r.LastInteraction != nil {
		t := *r.LastInteraction
		out.LastInteraction = &t
	}
	if r.OriginalOffsetMinutes != nil {
		o := *r.OriginalOffsetMinutes
		out.OriginalOffsetMinutes = &o
	}
	if r.SuccessHistory != nil {
		out.SuccessHistory = append([]Outcome(nil), r.SuccessHistory...)
	}
	if r.SnoozeHistory != nil {
		out.SnoozeHistory = append([]int(nil), r.SnoozeHistory...)
	}
	return out
}
