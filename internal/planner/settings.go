package planner

import (
	"context"
	"fmt"
	"time"

	"anchorcal/internal/dnd"
	"anchorcal/internal/model"
	"anchorcal/internal/store"
	"anchorcal/internal/timeutil"
)

var fallbackDND = model.DNDWindow{StartTime: "23:00", EndTime: "07:00"}

// SetDND sets day's window. Both times empty clears it. start == end is
// rejected; end < start is an overnight window.
func (s *Service) SetDND(ctx context.Context, day model.Day, start, end string) error {
	if !day.IsValid() {
		return validationf("day", "%q is not a weekday", day)
	}
	clearing := start == "" && end == ""
	if !clearing {
		if !timeutil.Valid(start) || !timeutil.Valid(end) {
			return validationf("dnd", "times must be HH:MM, got %q-%q", start, end)
		}
		if start == end {
			return validationf("dnd", "start and end cannot be the same")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	windows := make([]model.DNDWindow, 0, len(next.DND)+1)
	for _, w := range next.DND {
		if w.Day != day {
			windows = append(windows, w)
		}
	}
	desc := fmt.Sprintf("Cleared Do Not Disturb on %s.", day)
	if !clearing {
		windows = append(windows, model.DNDWindow{Day: day, StartTime: start, EndTime: end})
		desc = fmt.Sprintf("Do Not Disturb on %s set to %s-%s.", day, start, end)
	}
	next.DND = sortWindows(windows)
	return s.commitLocked(ctx, desc, next, store.KeyDND)
}

// ApplyDNDToAll copies one window to all seven days. The source is day's
// window, else Monday's, else the first configured one, else 23:00-07:00.
func (s *Service) ApplyDNDToAll(ctx context.Context, day model.Day) (model.DNDWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := dnd.Lookup(s.state.DND, day)
	if !ok {
		src, ok = dnd.Lookup(s.state.DND, model.Monday)
	}
	if !ok {
		src = fallbackDND
		for _, w := range s.state.DND {
			if w.IsSet() {
				src = w
				break
			}
		}
	}

	next := s.state.Clone()
	next.DND = make([]model.DNDWindow, 0, len(model.Week))
	for _, d := range model.Week {
		next.DND = append(next.DND, model.DNDWindow{Day: d, StartTime: src.StartTime, EndTime: src.EndTime})
	}
	src.Day = ""
	desc := fmt.Sprintf("Applied Do Not Disturb %s-%s to every day.", src.StartTime, src.EndTime)
	return src, s.commitLocked(ctx, desc, next, store.KeyDND)
}

// Pause suppresses every reminder until the given instant.
func (s *Service) Pause(ctx context.Context, until time.Time) error {
	if !until.After(s.clock.Now()) {
		return validationf("until", "pause end must be in the future")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.PauseUntil = &until
	desc := fmt.Sprintf("Paused all reminders until %s.", until.Format("Mon 15:04"))
	return s.commitLocked(ctx, desc, next, store.KeyPause)
}

// Resume clears the global pause.
func (s *Service) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.PauseUntil = nil
	return s.commitLocked(ctx, "Resumed reminders.", next, store.KeyPause)
}

func sortWindows(in []model.DNDWindow) []model.DNDWindow {
	out := make([]model.DNDWindow, 0, len(in))
	for _, d := range model.Week {
		for _, w := range in {
			if w.Day == d {
				out = append(out, w)
			}
		}
	}
	return out
}
