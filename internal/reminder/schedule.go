// Package reminder derives the active reminder view from a state snapshot
// and applies user actions to single reminders. Everything here is pure:
// callers pass "now" and get new values back.
package reminder

import (
	"sort"
	"time"

	"anchorcal/internal/dnd"
	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

// Scheduled is one entry of the active view.
type Scheduled struct {
	Reminder model.SmartReminder `json:"reminder"`
	Anchor   model.ScheduleEvent `json:"anchor"`

	// TriggerAt is the effective trigger after snooze and DND handling.
	TriggerAt time.Time `json:"triggerAt"`
	// DNDShifted marks triggers moved to the end of today's DND window.
	DNDShifted bool `json:"dndShifted"`
}

// Paused reports whether the global pause gate is closed at now.
func Paused(pauseUntil *time.Time, now time.Time) bool {
	return pauseUntil != nil && now.Before(*pauseUntil)
}

// Active returns the reminders relevant at now, ascending by TriggerAt.
//
// Done and ignored reminders are skipped, as are reminders whose anchor no
// longer exists. Active reminders whose nominal trigger already passed are
// dropped; snoozed and paused ones are kept and fire at SnoozedUntil.
func Active(s model.State, now time.Time) []Scheduled {
	if Paused(s.PauseUntil, now) {
		return []Scheduled{}
	}

	anchors := s.AnchorIndex()
	out := make([]Scheduled, 0, len(s.Reminders))
	for _, r := range s.Reminders {
		if !r.Status.Live() {
			continue
		}
		anchor, ok := anchors[r.EventID]
		if !ok {
			continue
		}

		trigger := NominalTrigger(anchor, r, now)
		held := r.Status == model.StatusSnoozed || r.Status == model.StatusPaused
		if held && r.SnoozedUntil != nil {
			trigger = *r.SnoozedUntil
		}
		if !held && trigger.Before(now) {
			continue
		}

		trigger, shifted := dnd.Shift(s.DND, now, trigger)
		out = append(out, Scheduled{
			Reminder:   r.Clone(),
			Anchor:     anchor.Clone(),
			TriggerAt:  trigger,
			DNDShifted: shifted,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}

// NominalTrigger is today's anchor start plus the reminder offset.
func NominalTrigger(anchor model.ScheduleEvent, r model.SmartReminder, now time.Time) time.Time {
	return timeutil.At(now, anchor.StartTime).Add(time.Duration(r.OffsetMinutes) * time.Minute)
}

// DueBetween filters view to entries whose trigger lies in (from, to].
func DueBetween(view []Scheduled, from, to time.Time) []Scheduled {
	var due []Scheduled
	for _, s := range view {
		if s.TriggerAt.After(from) && !s.TriggerAt.After(to) {
			due = append(due, s)
		}
	}
	return due
}
