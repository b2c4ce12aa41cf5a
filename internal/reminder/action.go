package reminder

import (
	"errors"
	"fmt"
	"time"

	"anchorcal/internal/dnd"
	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

var (
	// ErrTerminal is returned for status changes on done or ignored reminders.
	ErrTerminal = errors.New("reminder is already done or ignored")
	// ErrInvalidAction covers unknown kinds and actions whose preconditions fail.
	ErrInvalidAction = errors.New("invalid reminder action")
)

type ActionKind string

const (
	ActionDone              ActionKind = "done"
	ActionSnooze            ActionKind = "snooze"
	ActionPause             ActionKind = "pause"
	ActionIgnore            ActionKind = "ignore"
	ActionLater             ActionKind = "later"
	ActionToggleLock        ActionKind = "toggle_lock"
	ActionRevertExploration ActionKind = "revert_exploration"
)

// Action is a reminder action. Minutes is only read for snooze.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Minutes int        `json:"minutes,omitempty"`
}

func Done() Action              { return Action{Kind: ActionDone} }
func Snooze(minutes int) Action { return Action{Kind: ActionSnooze, Minutes: minutes} }
func Pause() Action             { return Action{Kind: ActionPause} }
func Ignore() Action            { return Action{Kind: ActionIgnore} }
func Later() Action             { return Action{Kind: ActionLater} }
func ToggleLock() Action        { return Action{Kind: ActionToggleLock} }
func RevertExploration() Action { return Action{Kind: ActionRevertExploration} }

// Env is the context an action is evaluated in.
type Env struct {
	Now time.Time
	DND []model.DNDWindow
}

const (
	laterDelay     = 3 * time.Hour
	laterFallback  = time.Hour
	laterDNDMargin = 15 * time.Minute
	pauseResumeAt  = "09:00"
)

// Apply returns the updated reminder and a history message; the message is
// empty when the action is not worth announcing. r itself is not modified.
func Apply(r model.SmartReminder, a Action, env Env) (model.SmartReminder, string, error) {
	out := r.Clone()
	now := env.Now

	switch a.Kind {
	case ActionDone, ActionSnooze, ActionPause, ActionIgnore, ActionLater:
		if r.Status == model.StatusDone || r.Status == model.StatusIgnored {
			return r, "", fmt.Errorf("%s %q: %w", a.Kind, r.ID, ErrTerminal)
		}
	}

	switch a.Kind {
	case ActionDone:
		out.Status = model.StatusDone
		out.SuccessHistory = append(out.SuccessHistory, model.OutcomeSuccess)
		out.LastInteraction = &now
		return out, fmt.Sprintf("Completed %q.", r.Message), nil

	case ActionSnooze:
		if a.Minutes <= 0 {
			return r, "", fmt.Errorf("snooze needs a positive duration, got %d: %w", a.Minutes, ErrInvalidAction)
		}
		until := now.Add(time.Duration(a.Minutes) * time.Minute)
		out.Status = model.StatusSnoozed
		out.SnoozedUntil = &until
		out.SnoozeHistory = append(out.SnoozeHistory, a.Minutes)
		out.SuccessHistory = append(out.SuccessHistory, model.OutcomeSnoozed)
		out.LastInteraction = &now
		return out, fmt.Sprintf("Snoozed %q for %dm.", r.Message, a.Minutes), nil

	case ActionPause:
		until := timeutil.At(now.AddDate(0, 0, 1), pauseResumeAt)
		out.Status = model.StatusPaused
		out.SnoozedUntil = &until
		return out, fmt.Sprintf("Paused %q until tomorrow.", r.Message), nil

	case ActionIgnore:
		out.Status = model.StatusIgnored
		out.SuccessHistory = append(out.SuccessHistory, model.OutcomeIgnored)
		out.LastInteraction = &now
		return out, "", nil

	case ActionLater:
		until := LaterTime(env.DND, now)
		out.Status = model.StatusSnoozed
		out.SnoozedUntil = &until
		out.SuccessHistory = append(out.SuccessHistory, model.OutcomeSnoozed)
		out.LastInteraction = &now
		return out, fmt.Sprintf("Rescheduled %q for later.", r.Message), nil

	case ActionToggleLock:
		out.IsLocked = !r.IsLocked
		out.AllowExploration = !out.IsLocked
		verb := "Unlocked"
		if out.IsLocked {
			verb = "Locked"
		}
		return out, fmt.Sprintf("%s %q.", verb, r.Message), nil

	case ActionRevertExploration:
		if !r.IsExploratory || r.OriginalOffsetMinutes == nil {
			return r, "", fmt.Errorf("reminder %q is not exploratory: %w", r.ID, ErrInvalidAction)
		}
		out.OffsetMinutes = *r.OriginalOffsetMinutes
		out.IsExploratory = false
		out.OriginalOffsetMinutes = nil
		return out, fmt.Sprintf("Reverted exploratory time for %q.", r.Message), nil

	default:
		return r, "", fmt.Errorf("%q: %w", a.Kind, ErrInvalidAction)
	}
}

// LaterTime is now+3h, capped to 15 minutes before the next start of
// today's DND window, and never earlier than now+1h once the cap has
// already passed.
func LaterTime(windows []model.DNDWindow, now time.Time) time.Time {
	later := now.Add(laterDelay)
	if w, ok := dnd.Lookup(windows, model.DayOf(now)); ok {
		start := timeutil.At(now, w.StartTime)
		if start.Before(now) {
			start = start.AddDate(0, 0, 1)
		}
		if limit := start.Add(-laterDNDMargin); later.After(limit) {
			later = limit
		}
	}
	if !later.After(now) {
		later = now.Add(laterFallback)
	}
	return later
}
