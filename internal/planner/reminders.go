package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"anchorcal/internal/habit"
	"anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/reminder"
	"anchorcal/internal/store"
	"anchorcal/internal/timeutil"
)

// NewReminder is a structured reminder request for one anchor.
type NewReminder struct {
	EventID       string `json:"eventId"`
	OffsetMinutes int    `json:"offsetMinutes"`
	Message       string `json:"message"`
	Why           string `json:"why"`
}

func newReminder(eventID string, offset int, message, why string) model.SmartReminder {
	return model.SmartReminder{
		ID:               uuid.NewString(),
		EventID:          eventID,
		OffsetMinutes:    offset,
		Message:          message,
		Why:              why,
		Status:           model.StatusActive,
		AllowExploration: true,
	}
}

// AddReminder attaches a reminder to an existing anchor.
func (s *Service) AddReminder(ctx context.Context, req NewReminder) (model.SmartReminder, error) {
	if strings.TrimSpace(req.Message) == "" {
		return model.SmartReminder{}, validationf("message", "a reminder needs a message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := model.FindAnchor(s.state.Anchors, req.EventID)
	if !ok {
		return model.SmartReminder{}, &model.NotFoundError{Kind: "anchor", ID: req.EventID}
	}
	r := newReminder(req.EventID, req.OffsetMinutes, strings.TrimSpace(req.Message), req.Why)

	next := s.state.Clone()
	next.Reminders = append(next.Reminders, r.Clone())
	return r, s.commitLocked(ctx, reminderAdded(r, s.state.Anchors[i].Title), next, store.KeyReminders)
}

// AddReminderFromText asks the parser for a structured reminder and
// attaches it to every anchor carrying the parsed title. The parser call
// runs without holding the state lock.
func (s *Service) AddReminderFromText(ctx context.Context, text string) ([]model.SmartReminder, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("text", "tell me what to remind you about")
	}
	if s.parser == nil {
		return nil, errors.New("natural-language parser is not configured")
	}

	titles := anchorTitles(s.Snapshot().Anchors)
	if len(titles) == 0 {
		return nil, validationf("text", "add an anchor first, then attach reminders to it")
	}
	res, err := s.parser.Parse(ctx, text, titles)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []model.SmartReminder
	for _, a := range s.state.Anchors {
		if a.Title == res.AnchorTitle {
			created = append(created, newReminder(a.ID, res.OffsetMinutes, res.Message, res.Why))
		}
	}
	if len(created) == 0 {
		// The anchor may have been renamed or deleted while the parser ran.
		return nil, validationf("anchorTitle", "I couldn't find an anchor named %q. Please check the name and try again.", res.AnchorTitle)
	}

	next := s.state.Clone()
	next.Reminders = append(next.Reminders, model.CloneReminders(created)...)
	log.Info("reminders parsed", "anchor", res.AnchorTitle, "count", len(created))
	return created, s.commitLocked(ctx, reminderAdded(created[0], res.AnchorTitle), next, store.KeyReminders)
}

// ReminderAction applies a to reminder id. Completing a stacked habit
// records the completion and reports the new streak in the message.
func (s *Service) ReminderAction(ctx context.Context, id string, a reminder.Action) (model.SmartReminder, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := model.FindReminder(s.state.Reminders, id)
	if !ok {
		return model.SmartReminder{}, "", &model.NotFoundError{Kind: "reminder", ID: id}
	}
	cur := s.state.Reminders[i]
	updated, msg, err := reminder.Apply(cur, a, reminder.Env{Now: s.clock.Now(), DND: s.state.DND})
	if err != nil {
		return model.SmartReminder{}, "", err
	}

	keys := []string{store.KeyReminders}
	if a.Kind == reminder.ActionDone && cur.IsStackedHabit && cur.HabitID != "" {
		streak, err := s.recorder.RecordCompletion(cur.HabitID)
		if err != nil {
			log.Warn("record habit completion", "habit", cur.HabitID, "err", err)
		} else {
			msg += fmt.Sprintf(" Streak: %d!", streak)
			keys = append(keys, store.KeyStreaks)
		}
	}

	next := s.state.Clone()
	next.Reminders[i] = updated.Clone()
	desc := msg
	if desc == "" {
		desc = fmt.Sprintf("%s %q.", actionVerb(a.Kind), cur.Message)
	}
	return updated, msg, s.commitLocked(ctx, desc, next, keys...)
}

// HabitSuggestion offers a habit for the first anchor that can carry one.
func (s *Service) HabitSuggestion() (habit.Suggestion, bool) {
	st := s.Snapshot()
	return habit.Suggest(st.Anchors, st.Reminders, s.catalog)
}

// StackHabit adds h as a reminder that fires when the anchor ends.
func (s *Service) StackHabit(ctx context.Context, anchorID string, h habit.Habit) (model.SmartReminder, error) {
	if h.ID == "" || strings.TrimSpace(h.Name) == "" {
		return model.SmartReminder{}, validationf("habit", "a habit needs an id and a name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := model.FindAnchor(s.state.Anchors, anchorID)
	if !ok {
		return model.SmartReminder{}, &model.NotFoundError{Kind: "anchor", ID: anchorID}
	}
	a := s.state.Anchors[i]

	why := h.Description
	if why == "" {
		why = fmt.Sprintf("Stacked onto %q.", a.Title)
	}
	r := newReminder(a.ID, timeutil.Duration(a.StartTime, a.EndTime), h.Name, why)
	r.IsStackedHabit = true
	r.HabitID = h.ID

	next := s.state.Clone()
	next.Reminders = append(next.Reminders, r.Clone())
	desc := fmt.Sprintf("Stacked %q onto %q.", h.Name, a.Title)
	return r, s.commitLocked(ctx, desc, next, store.KeyReminders)
}

func anchorTitles(anchors []model.ScheduleEvent) []string {
	seen := make(map[string]bool, len(anchors))
	var out []string
	for _, a := range anchors {
		if !seen[a.Title] {
			seen[a.Title] = true
			out = append(out, a.Title)
		}
	}
	return out
}

func reminderAdded(r model.SmartReminder, anchorTitle string) string {
	return fmt.Sprintf("Reminder added: %q %s %s.", r.Message, FormatOffset(r.OffsetMinutes), anchorTitle)
}

// FormatOffset renders an offset as "at the start of", "5 minutes before", ...
func FormatOffset(offset int) string {
	if offset == 0 {
		return "at the start of"
	}
	n := offset
	dir := "after"
	if n < 0 {
		n = -n
		dir = "before"
	}
	unit := "minutes"
	if n == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("%d %s %s", n, unit, dir)
}

func actionVerb(k reminder.ActionKind) string {
	switch k {
	case reminder.ActionIgnore:
		return "Ignored"
	default:
		return "Updated"
	}
}
