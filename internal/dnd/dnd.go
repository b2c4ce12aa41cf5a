// Package dnd answers whether an instant falls inside a Do-Not-Disturb window
// and where the next valid instant is.
package dnd

import (
	"time"

	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

// Lookup returns the window configured for day. Windows missing either
// boundary count as absent.
func Lookup(windows []model.DNDWindow, day model.Day) (model.DNDWindow, bool) {
	for _, w := range windows {
		if w.Day == day {
			return w, w.IsSet()
		}
	}
	return model.DNDWindow{}, false
}

// Occurrence places w on now's calendar date. For an overnight window the
// boundary is moved to yesterday or tomorrow so that the returned interval is
// the 24h occurrence now belongs to: before the end time it started
// yesterday, otherwise it ends tomorrow.
func Occurrence(w model.DNDWindow, now time.Time) (start, end time.Time) {
	start = timeutil.At(now, w.StartTime)
	end = timeutil.At(now, w.EndTime)
	if end.Before(start) {
		if now.Before(end) {
			start = start.AddDate(0, 0, -1)
		} else {
			end = end.AddDate(0, 0, 1)
		}
	}
	return start, end
}

// Today returns the occurrence of today's window, if one is configured.
func Today(windows []model.DNDWindow, now time.Time) (start, end time.Time, ok bool) {
	w, ok := Lookup(windows, model.DayOf(now))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start, end = Occurrence(w, now)
	return start, end, true
}

// Contains reports start <= t < end. The end instant is the first valid
// moment after DND and is never inside.
func Contains(start, end, t time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// Shift moves t to the end of today's window when t falls inside it. The
// second result reports whether a shift happened.
func Shift(windows []model.DNDWindow, now, t time.Time) (time.Time, bool) {
	start, end, ok := Today(windows, now)
	if !ok || !Contains(start, end, t) {
		return t, false
	}
	return end, true
}

// Active reports whether now is inside today's window.
func Active(windows []model.DNDWindow, now time.Time) bool {
	start, end, ok := Today(windows, now)
	return ok && Contains(start, end, now)
}

// OverlapsRange reports whether [start,end) on day overlaps that day's
// window. Overnight windows cover [start,24:00) and [00:00,end) of the day.
func OverlapsRange(windows []model.DNDWindow, day model.Day, start, end string) bool {
	w, ok := Lookup(windows, day)
	if !ok {
		return false
	}
	s, e := timeutil.TimeToMinutes(start), timeutil.TimeToMinutes(end)
	ws, we := timeutil.TimeToMinutes(w.StartTime), timeutil.TimeToMinutes(w.EndTime)
	if we >= ws {
		return timeutil.OverlapsMinutes(s, e, ws, we)
	}
	return timeutil.OverlapsMinutes(s, e, ws, timeutil.MinutesPerDay) ||
		timeutil.OverlapsMinutes(s, e, 0, we)
}
