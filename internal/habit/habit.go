// Package habit decides when an anchor is reliable enough to carry a new
// stacked habit and keeps completion streaks for stacked habits.
package habit

import (
	"fmt"

	"anchorcal/internal/model"
)

const (
	minHistory    = 3
	minSuccessPct = 0.75
)

// Habit is a catalog entry.
type Habit struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Energy      model.EnergyTag `json:"energy"`
}

// Suggestion pairs an eligible anchor with a habit from the catalog.
type Suggestion struct {
	Anchor model.ScheduleEvent `json:"anchor"`
	Habit  Habit               `json:"habit"`
	Reason string              `json:"reason"`
}

// Eligible returns the first anchor, in calendar order, that can take a new
// stacked habit: it has reminders, each with at least three outcomes and a
// 75% success rate, and none of them is a stacked habit still under three
// outcomes.
func Eligible(anchors []model.ScheduleEvent, reminders []model.SmartReminder) (model.ScheduleEvent, bool) {
	byAnchor := make(map[string][]model.SmartReminder)
	for _, r := range reminders {
		byAnchor[r.EventID] = append(byAnchor[r.EventID], r)
	}

	for _, a := range anchors {
		rs := byAnchor[a.ID]
		if len(rs) == 0 {
			continue
		}
		ok := true
		for _, r := range rs {
			if len(r.SuccessHistory) < minHistory || r.SuccessRate() < minSuccessPct {
				ok = false
				break
			}
			if r.IsStackedHabit && len(r.SuccessHistory) < minHistory {
				ok = false
				break
			}
		}
		if ok {
			return a.Clone(), true
		}
	}
	return model.ScheduleEvent{}, false
}

// Suggest runs Eligible and asks the catalog for a habit to offer.
func Suggest(anchors []model.ScheduleEvent, reminders []model.SmartReminder, catalog Catalog) (Suggestion, bool) {
	a, ok := Eligible(anchors, reminders)
	if !ok {
		return Suggestion{}, false
	}
	h, ok := catalog.Suggest(model.EnergyAdmin)
	if !ok {
		return Suggestion{}, false
	}
	return Suggestion{
		Anchor: a,
		Habit:  h,
		Reason: fmt.Sprintf("You've built a solid routine around %q. This is a great time to stack a new habit!", a.Title),
	}, true
}
