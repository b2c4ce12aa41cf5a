package habit

import (
	"sync"
	"time"

	"anchorcal/internal/clock"
)

const dayLayout = "2006-01-02"

// Streak is the persisted completion streak of one habit.
type Streak struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate"`
}

// Recorder records a habit completion and returns the new streak count.
type Recorder interface {
	RecordCompletion(habitID string) (int, error)
}

// StreakRecorder counts consecutive calendar days with a completion.
// Completing twice on the same day keeps the count; missing a day resets it.
type StreakRecorder struct {
	clock clock.Clock

	mu      sync.Mutex
	streaks map[string]Streak
}

func NewStreakRecorder(c clock.Clock, initial map[string]Streak) *StreakRecorder {
	s := &StreakRecorder{clock: c, streaks: make(map[string]Streak, len(initial))}
	for k, v := range initial {
		s.streaks[k] = v
	}
	return s
}

func (s *StreakRecorder) RecordCompletion(habitID string) (int, error) {
	now := s.clock.Now()
	today := now.Format(dayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.streaks[habitID]
	switch st.LastDate {
	case today:
		if st.Count == 0 {
			st.Count = 1
		}
	case yesterday:
		st.Count++
	default:
		st.Count = 1
	}
	st.LastDate = today
	s.streaks[habitID] = st
	return st.Count, nil
}

// Snapshot copies the current streaks for persistence.
func (s *StreakRecorder) Snapshot() map[string]Streak {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Streak, len(s.streaks))
	for k, v := range s.streaks {
		out[k] = v
	}
	return out
}

// Restore replaces all streaks, e.g. after loading from the store or undo.
func (s *StreakRecorder) Restore(streaks map[string]Streak) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks = make(map[string]Streak, len(streaks))
	for k, v := range streaks {
		s.streaks[k] = v
	}
}

// Current returns the streak count as of now: zero once a day was missed.
func (s *StreakRecorder) Current(habitID string, now time.Time) int {
	s.mu.Lock()
	st, ok := s.streaks[habitID]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	if st.LastDate == now.Format(dayLayout) || st.LastDate == now.AddDate(0, 0, -1).Format(dayLayout) {
		return st.Count
	}
	return 0
}

var _ Recorder = (*StreakRecorder)(nil)
