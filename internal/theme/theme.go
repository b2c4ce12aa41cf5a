// Package theme picks the presentation mode that fits the current moment.
package theme

import (
	"time"

	"anchorcal/internal/dnd"
	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

const (
	eveningFrom = 19
	eveningTo   = 5
	prepWindow  = 30 // minutes before a focus anchor
)

// Context is everything Select looks at.
type Context struct {
	// ActiveChunk is the task chunk in progress, if any.
	ActiveChunk *model.Chunk
	// Running are the anchors overlapping Now. Use RunningAt to derive them.
	Running []model.ScheduleEvent
	Anchors []model.ScheduleEvent
	Now     time.Time
	DND     []model.DNDWindow
}

// Select returns the first matching theme of:
//
//  1. Evening after 19:00 and before 05:00
//  2. Focus inside today's DND window
//  3. Focus when the next anchor today starts within 30 minutes and is Work or HighEnergy
//  4. the active chunk's energy tag
//  5. tags of the running anchors
//
// and Creative otherwise.
func Select(c Context) model.Theme {
	if h := c.Now.Hour(); h >= eveningFrom || h < eveningTo {
		return model.ThemeEvening
	}
	if dnd.Active(c.DND, c.Now) {
		return model.ThemeFocus
	}
	if focusAnchorSoon(c.Anchors, c.Now) {
		return model.ThemeFocus
	}
	if ch := c.ActiveChunk; ch != nil && !ch.IsComplete {
		return ForEnergy(ch.EnergyTag)
	}
	if t, ok := fromRunning(c.Running); ok {
		return t
	}
	return model.ThemeCreative
}

// ForEnergy maps a chunk energy tag to a theme.
func ForEnergy(tag model.EnergyTag) model.Theme {
	switch tag {
	case model.EnergyTedious, model.EnergyAdmin:
		return model.ThemeFocus
	case model.EnergyCreative, model.EnergySocial:
		return model.ThemeCreative
	case model.EnergyErrand:
		return model.ThemeRecovery
	default:
		return model.ThemeCreative
	}
}

// RunningAt returns today's anchors with start <= now < end.
func RunningAt(anchors []model.ScheduleEvent, now time.Time) []model.ScheduleEvent {
	today := model.DayOf(now)
	cur := timeutil.MinuteOfDay(now)
	var out []model.ScheduleEvent
	for _, a := range anchors {
		if a.Day != today {
			continue
		}
		if timeutil.TimeToMinutes(a.StartTime) <= cur && cur < timeutil.TimeToMinutes(a.EndTime) {
			out = append(out, a)
		}
	}
	return out
}

// focusAnchorSoon looks at every anchor sharing the earliest upcoming start
// so the answer does not depend on slice order.
func focusAnchorSoon(anchors []model.ScheduleEvent, now time.Time) bool {
	today := model.DayOf(now)
	cur := timeutil.MinuteOfDay(now)

	next := -1
	for _, a := range anchors {
		s := timeutil.TimeToMinutes(a.StartTime)
		if a.Day == today && s > cur && (next < 0 || s < next) {
			next = s
		}
	}
	if next < 0 || next-cur > prepWindow {
		return false
	}
	for _, a := range anchors {
		if a.Day == today && timeutil.TimeToMinutes(a.StartTime) == next &&
			a.HasTag(model.TagWork, model.TagHighEnergy) {
			return true
		}
	}
	return false
}

func fromRunning(running []model.ScheduleEvent) (model.Theme, bool) {
	tiers := []struct {
		tags  []model.ContextTag
		theme model.Theme
	}{
		{[]model.ContextTag{model.TagRushed}, model.ThemeFocus},
		{[]model.ContextTag{model.TagHighEnergy, model.TagWork}, model.ThemeFocus},
		{[]model.ContextTag{model.TagRelaxed}, model.ThemeRecovery},
		{[]model.ContextTag{model.TagLowEnergy, model.TagRecovery}, model.ThemeRecovery},
	}
	for _, tier := range tiers {
		for _, a := range running {
			if a.HasTag(tier.tags...) {
				return tier.theme, true
			}
		}
	}
	return "", false
}
