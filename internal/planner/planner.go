// Package planner owns the live state: it applies the pure transforms of
// the reminder, conflict and dnd packages atomically, captures undo
// snapshots and writes changed documents to the store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anchorcal/internal/clock"
	"anchorcal/internal/conflict"
	"anchorcal/internal/habit"
	"anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/nlparse"
	"anchorcal/internal/reminder"
	"anchorcal/internal/store"
	"anchorcal/internal/theme"
	"anchorcal/internal/undo"
)

var ErrNoConflict = errors.New("no conflict is pending")

// Parser turns free text into a structured reminder request.
type Parser interface {
	Parse(ctx context.Context, text string, anchorTitles []string) (nlparse.Result, error)
}

// streakSnapshotter is implemented by recorders whose state is persisted.
type streakSnapshotter interface {
	Snapshot() map[string]habit.Streak
	Restore(map[string]habit.Streak)
}

type Options struct {
	Clock    clock.Clock
	Store    store.Store
	Parser   Parser
	Catalog  habit.Catalog
	Recorder habit.Recorder
}

// Service serializes every state change behind one mutex. Readers get deep
// copies, so nobody observes a half-applied transform.
type Service struct {
	clock    clock.Clock
	store    store.Store
	parser   Parser
	catalog  habit.Catalog
	recorder habit.Recorder

	mu        sync.Mutex
	state     model.State
	pending   *conflict.Conflict
	history   undo.History
	lastTheme model.Theme
}

func New(opts Options) *Service {
	s := &Service{
		clock:    opts.Clock,
		store:    opts.Store,
		parser:   opts.Parser,
		catalog:  opts.Catalog,
		recorder: opts.Recorder,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.catalog == nil {
		s.catalog = habit.DefaultCatalog()
	}
	if s.recorder == nil {
		s.recorder = habit.NewStreakRecorder(s.clock, nil)
	}
	return s
}

// Load replaces the in-memory state with the stored documents. Missing
// documents leave the corresponding collection empty.
func (s *Service) Load(ctx context.Context) error {
	var next model.State
	targets := map[string]any{
		store.KeyAnchors:   &next.Anchors,
		store.KeyReminders: &next.Reminders,
		store.KeyDND:       &next.DND,
		store.KeyPause:     &next.PauseUntil,
	}
	for _, key := range []string{store.KeyAnchors, store.KeyReminders, store.KeyDND, store.KeyPause} {
		if _, err := s.store.Load(ctx, key, targets[key]); err != nil {
			return err
		}
	}

	if ss, ok := s.recorder.(streakSnapshotter); ok {
		var streaks map[string]habit.Streak
		if _, err := s.store.Load(ctx, store.KeyStreaks, &streaks); err != nil {
			return err
		}
		ss.Restore(streaks)
	}

	s.mu.Lock()
	s.state = next
	s.pending = nil
	s.history = undo.History{}
	s.mu.Unlock()

	log.Info("state loaded",
		"anchors", len(next.Anchors),
		"reminders", len(next.Reminders),
		"dnd_windows", len(next.DND),
	)
	return nil
}

func (s *Service) Now() time.Time { return s.clock.Now() }

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ActiveReminders is the reminder view at the clock's now.
func (s *Service) ActiveReminders() []reminder.Scheduled {
	now := s.clock.Now()
	return reminder.Active(s.Snapshot(), now)
}

// Theme selects the theme for now. chunk may be nil.
func (s *Service) Theme(chunk *model.Chunk) model.Theme {
	st := s.Snapshot()
	now := s.clock.Now()
	return theme.Select(theme.Context{
		ActiveChunk: chunk,
		Running:     theme.RunningAt(st.Anchors, now),
		Anchors:     st.Anchors,
		Now:         now,
		DND:         st.DND,
	})
}

// History lists the undoable changes, newest first.
func (s *Service) History() []undo.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.List()
}

// Undo restores the state captured before the latest change.
func (s *Service) Undo(ctx context.Context) (undo.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.history.Pop()
	if err != nil {
		return undo.Entry{}, err
	}
	s.state = e.Before.Clone()
	s.pending = nil
	log.Info("undo", "change", e.Description)
	return e, s.persistLocked(ctx, store.KeyAnchors, store.KeyReminders, store.KeyDND, store.KeyPause)
}

// TickReport is what changed between two evaluations of the clock.
type TickReport struct {
	Due          []reminder.Scheduled
	Theme        model.Theme
	ThemeChanged bool
}

// Tick evaluates the view at to and returns the reminders whose trigger
// lies in (from, to].
func (s *Service) Tick(from, to time.Time) TickReport {
	st := s.Snapshot()
	view := reminder.Active(st, to)
	th := theme.Select(theme.Context{
		Running: theme.RunningAt(st.Anchors, to),
		Anchors: st.Anchors,
		Now:     to,
		DND:     st.DND,
	})

	s.mu.Lock()
	changed := s.lastTheme != "" && s.lastTheme != th
	s.lastTheme = th
	s.mu.Unlock()

	return TickReport{
		Due:          reminder.DueBetween(view, from, to),
		Theme:        th,
		ThemeChanged: changed,
	}
}

// commitLocked records the undo snapshot, installs next and persists keys.
// The new state stays in place when persisting fails.
func (s *Service) commitLocked(ctx context.Context, desc string, next model.State, keys ...string) error {
	s.history.Push(desc, s.clock.Now(), s.state)
	s.state = next
	log.Debug("state changed", "change", desc)
	return s.persistLocked(ctx, keys...)
}

func (s *Service) persistLocked(ctx context.Context, keys ...string) error {
	docs := make(map[string]any, len(keys))
	for _, k := range keys {
		switch k {
		case store.KeyAnchors:
			docs[k] = nonNil(s.state.Anchors)
		case store.KeyReminders:
			docs[k] = nonNil(s.state.Reminders)
		case store.KeyDND:
			docs[k] = nonNil(s.state.DND)
		case store.KeyPause:
			docs[k] = s.state.PauseUntil
		case store.KeyStreaks:
			if ss, ok := s.recorder.(streakSnapshotter); ok {
				docs[k] = ss.Snapshot()
			}
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.store.SaveBatch(ctx, docs); err != nil {
		log.Error("persist state", err, "keys", len(docs))
		var pe *model.PersistenceError
		if errors.As(err, &pe) {
			return err
		}
		return &model.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func validationf(field, format string, args ...any) error {
	return &model.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
