package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"anchorcal/internal/conflict"
	"anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/store"
	"anchorcal/internal/timeutil"
)

// NewAnchor creates one anchor per day.
type NewAnchor struct {
	Title     string             `json:"title"`
	Days      []model.Day        `json:"days"`
	StartTime string             `json:"startTime"`
	EndTime   string             `json:"endTime"`
	Tags      []model.ContextTag `json:"contextTags,omitempty"`
}

func (a NewAnchor) validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return validationf("title", "an anchor needs a title")
	}
	if len(a.Days) == 0 {
		return validationf("days", "pick at least one day")
	}
	for _, d := range a.Days {
		if !d.IsValid() {
			return validationf("days", "%q is not a weekday", d)
		}
	}
	return validateRange("time", a.StartTime, a.EndTime)
}

func validateRange(field, start, end string) error {
	if !timeutil.Valid(start) || !timeutil.Valid(end) {
		return validationf(field, "times must be HH:MM, got %q-%q", start, end)
	}
	if timeutil.TimeToMinutes(start) >= timeutil.TimeToMinutes(end) {
		return validationf(field, "start %s must be before end %s on the same day", start, end)
	}
	return nil
}

// AddAnchor appends one anchor per requested day. Untagged anchors are
// tagged Personal.
func (s *Service) AddAnchor(ctx context.Context, req NewAnchor) ([]model.ScheduleEvent, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	tags := req.Tags
	if len(tags) == 0 {
		tags = []model.ContextTag{model.TagPersonal}
	}

	var created []model.ScheduleEvent
	for _, d := range model.Week {
		if !containsDay(req.Days, d) {
			continue
		}
		created = append(created, model.ScheduleEvent{
			ID:          uuid.NewString(),
			Day:         d,
			Title:       strings.TrimSpace(req.Title),
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			ContextTags: append([]model.ContextTag(nil), tags...),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Anchors = append(next.Anchors, model.CloneAnchors(created)...)
	desc := fmt.Sprintf("Anchor %q created for %s.", created[0].Title, FormatDays(req.Days))
	return created, s.commitLocked(ctx, desc, next, store.KeyAnchors)
}

// DuplicateAnchor copies an anchor under a fresh id.
func (s *Service) DuplicateAnchor(ctx context.Context, id string) (model.ScheduleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := model.FindAnchor(s.state.Anchors, id)
	if !ok {
		return model.ScheduleEvent{}, &model.NotFoundError{Kind: "anchor", ID: id}
	}
	dup := s.state.Anchors[i].Clone()
	dup.ID = uuid.NewString()

	next := s.state.Clone()
	next.Anchors = append(next.Anchors, dup.Clone())
	return dup, s.commitLocked(ctx, fmt.Sprintf("Duplicated %q.", dup.Title), next, store.KeyAnchors)
}

// DeleteAnchor removes the anchor. Its reminders stay and become orphans,
// which the active view drops.
func (s *Service) DeleteAnchor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := model.FindAnchor(s.state.Anchors, id)
	if !ok {
		return &model.NotFoundError{Kind: "anchor", ID: id}
	}
	title := s.state.Anchors[i].Title

	next := s.state.Clone()
	next.Anchors = append(next.Anchors[:i], next.Anchors[i+1:]...)
	if s.pending != nil && (s.pending.EventToMoveID == id || s.pending.OverlappingEventID == id) {
		s.pending = nil
	}
	return s.commitLocked(ctx, fmt.Sprintf("Deleted anchor %q.", title), next, store.KeyAnchors)
}

// DropAnchor moves id onto day, or leaves a pending conflict for
// ResolveConflict. A new drop replaces any earlier pending conflict.
func (s *Service) DropAnchor(ctx context.Context, id string, day model.Day) (conflict.Outcome, error) {
	if !day.IsValid() {
		return conflict.Outcome{}, validationf("day", "%q is not a weekday", day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := conflict.Drop(s.state.Anchors, s.state.DND, id, day)
	if err != nil {
		return conflict.Outcome{}, err
	}
	if !out.Committed {
		c := *out.Conflict
		s.pending = &c
		log.Info("move conflict", "anchor", id, "day", day, "type", c.Type)
		return out, nil
	}

	s.pending = nil
	next := s.state.Clone()
	next.Anchors = out.Anchors
	return out, s.commitLocked(ctx, out.Description, next, store.KeyAnchors)
}

// PendingConflict returns a copy of the conflict waiting for a decision.
func (s *Service) PendingConflict() *conflict.Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	c := *s.pending
	return &c
}

// ResolveConflict applies res to the pending conflict. The conflict stays
// pending when res cannot be applied.
func (s *Service) ResolveConflict(ctx context.Context, res conflict.Resolution) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return "", ErrNoConflict
	}
	anchors, desc, err := conflict.Resolve(s.state.Anchors, s.state.DND, *s.pending, res)
	if err != nil {
		return "", err
	}
	s.pending = nil

	next := s.state.Clone()
	next.Anchors = anchors
	return desc, s.commitLocked(ctx, desc, next, store.KeyAnchors)
}

// CancelConflict discards the pending conflict without moving anything.
func (s *Service) CancelConflict() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return ErrNoConflict
	}
	s.pending = nil
	return nil
}

// WorkBlock is one recurring block of work hours.
type WorkBlock struct {
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	Days      []model.Day `json:"days"`
}

// Onboarding describes a first-run setup.
type Onboarding struct {
	WorkBlocks []WorkBlock `json:"workBlocks"`
	SleepStart string      `json:"sleepStart"`
	SleepEnd   string      `json:"sleepEnd"`
}

// DefaultOnboarding is a 09:00-17:00 weekday job and 23:00-07:00 sleep.
func DefaultOnboarding() Onboarding {
	return Onboarding{
		WorkBlocks: []WorkBlock{{
			StartTime: "09:00",
			EndTime:   "17:00",
			Days:      []model.Day{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday},
		}},
		SleepStart: "23:00",
		SleepEnd:   "07:00",
	}
}

// Onboard replaces anchors and DND windows with the generated setup.
// Reminders are kept.
func (s *Service) Onboard(ctx context.Context, o Onboarding) error {
	if !timeutil.Valid(o.SleepStart) || !timeutil.Valid(o.SleepEnd) {
		return validationf("sleep", "sleep times must be HH:MM, got %q-%q", o.SleepStart, o.SleepEnd)
	}

	var anchors []model.ScheduleEvent
	for _, b := range o.WorkBlocks {
		if err := validateRange("workBlocks", b.StartTime, b.EndTime); err != nil {
			return err
		}
		for _, d := range model.Week {
			if !containsDay(b.Days, d) {
				continue
			}
			anchors = append(anchors, model.ScheduleEvent{
				ID:          uuid.NewString(),
				Day:         d,
				Title:       "Work",
				StartTime:   b.StartTime,
				EndTime:     b.EndTime,
				ContextTags: []model.ContextTag{model.TagWork, model.TagHighEnergy},
			})
		}
	}
	windows := make([]model.DNDWindow, 0, len(model.Week))
	for _, d := range model.Week {
		windows = append(windows, model.DNDWindow{Day: d, StartTime: o.SleepStart, EndTime: o.SleepEnd})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Anchors = anchors
	next.DND = windows
	s.pending = nil
	desc := fmt.Sprintf("Set up %d work anchors and sleep %s-%s.", len(anchors), o.SleepStart, o.SleepEnd)
	return s.commitLocked(ctx, desc, next, store.KeyAnchors, store.KeyDND)
}

func containsDay(days []model.Day, d model.Day) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

var shortDay = map[model.Day]string{
	model.Monday: "Mon", model.Tuesday: "Tue", model.Wednesday: "Wed", model.Thursday: "Thu",
	model.Friday: "Fri", model.Saturday: "Sat", model.Sunday: "Sun",
}

// FormatDays renders a day set as "Weekdays", "Weekends" or "Mon, Wed".
func FormatDays(days []model.Day) string {
	var sorted []model.Day
	for _, d := range model.Week {
		if containsDay(days, d) {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) >= 5 && sorted[0] == model.Monday && sorted[4] == model.Friday {
		if len(sorted) == 5 {
			return "Weekdays"
		}
		if len(sorted) == 7 {
			return "Every day"
		}
	}
	if len(sorted) == 2 && sorted[0] == model.Saturday && sorted[1] == model.Sunday {
		return "Weekends"
	}
	names := make([]string, len(sorted))
	for i, d := range sorted {
		names[i] = shortDay[d]
	}
	return strings.Join(names, ", ")
}

// ImportAnchors upserts anchors by id, as produced by a calendar import.
// Existing anchors with the same id are replaced in place; the rest are
// appended. It returns how many were added and how many replaced.
func (s *Service) ImportAnchors(ctx context.Context, source string, in []model.ScheduleEvent) (added, replaced int, err error) {
	for _, a := range in {
		if a.ID == "" || !a.Day.IsValid() {
			return 0, 0, validationf("anchors", "imported anchor %q has no id or day", a.Title)
		}
		if err := validateRange("time", a.StartTime, a.EndTime); err != nil {
			return 0, 0, err
		}
	}
	if len(in) == 0 {
		return 0, 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	for _, a := range in {
		if i, ok := model.FindAnchor(next.Anchors, a.ID); ok {
			next.Anchors[i] = a.Clone()
			replaced++
			continue
		}
		next.Anchors = append(next.Anchors, a.Clone())
		added++
	}
	desc := fmt.Sprintf("Imported %d anchors from %s.", added+replaced, source)
	log.Info("anchors imported", "source", source, "added", added, "replaced", replaced)
	return added, replaced, s.commitLocked(ctx, desc, next, store.KeyAnchors)
}
