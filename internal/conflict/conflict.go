// Package conflict checks an anchor drop onto another weekday against the
// target day's DND window and anchors, and applies the chosen resolution.
package conflict

import (
	"errors"
	"fmt"

	"anchorcal/internal/dnd"
	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

var (
	ErrSameDay         = errors.New("anchor is already on that day")
	ErrWrongResolution = errors.New("resolution does not apply to this conflict")
	ErrCrossesMidnight = errors.New("moved anchor would cross midnight")
)

type Type string

const (
	TypeDND     Type = "dnd"
	TypeOverlap Type = "overlap"
)

// Conflict is transient: it lives between a drop and the user's decision.
type Conflict struct {
	Type               Type      `json:"type"`
	EventToMoveID      string    `json:"eventToMoveId"`
	TargetDay          model.Day `json:"targetDay"`
	OverlappingEventID string    `json:"overlappingEventId,omitempty"`
}

type Resolution string

const (
	KeepOverlap  Resolution = "keep_overlap"
	ShiftOverlap Resolution = "shift_overlap"
	ShiftDND     Resolution = "shift_dnd"
)

// Outcome of a drop. Either Committed with the new anchor list, or a
// Conflict waiting for a Resolution.
type Outcome struct {
	Anchors     []model.ScheduleEvent `json:"-"`
	Conflict    *Conflict             `json:"conflict,omitempty"`
	Committed   bool                  `json:"committed"`
	Description string                `json:"description,omitempty"`
}

// Detect returns the first conflict of moving id onto target, or nil.
// The DND check wins over anchor overlap.
func Detect(anchors []model.ScheduleEvent, windows []model.DNDWindow, id string, target model.Day) (*Conflict, error) {
	i, ok := model.FindAnchor(anchors, id)
	if !ok {
		return nil, &model.NotFoundError{Kind: "anchor", ID: id}
	}
	moving := anchors[i]
	if moving.Day == target {
		return nil, ErrSameDay
	}

	if dnd.OverlapsRange(windows, target, moving.StartTime, moving.EndTime) {
		return &Conflict{Type: TypeDND, EventToMoveID: id, TargetDay: target}, nil
	}
	for _, other := range anchors {
		if other.ID == id || other.Day != target {
			continue
		}
		if timeutil.Overlaps(moving.StartTime, moving.EndTime, other.StartTime, other.EndTime) {
			return &Conflict{
				Type:               TypeOverlap,
				EventToMoveID:      id,
				TargetDay:          target,
				OverlappingEventID: other.ID,
			}, nil
		}
	}
	return nil, nil
}

// Drop commits the move right away when nothing conflicts.
func Drop(anchors []model.ScheduleEvent, windows []model.DNDWindow, id string, target model.Day) (Outcome, error) {
	c, err := Detect(anchors, windows, id, target)
	if err != nil {
		return Outcome{}, err
	}
	if c != nil {
		return Outcome{Conflict: c}, nil
	}
	moved, desc, err := Move(anchors, id, target, "")
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Anchors: moved, Committed: true, Description: desc}, nil
}

// Move returns a copy of anchors with id placed on day at start, keeping its
// duration. An empty start keeps the current start time.
func Move(anchors []model.ScheduleEvent, id string, day model.Day, start string) ([]model.ScheduleEvent, string, error) {
	i, ok := model.FindAnchor(anchors, id)
	if !ok {
		return nil, "", &model.NotFoundError{Kind: "anchor", ID: id}
	}
	a := anchors[i]
	if start == "" {
		start = a.StartTime
	}
	startMin := timeutil.TimeToMinutes(start)
	endMin := startMin + timeutil.Duration(a.StartTime, a.EndTime)
	if endMin >= timeutil.MinutesPerDay {
		return nil, "", fmt.Errorf("%q at %s: %w", a.Title, start, ErrCrossesMidnight)
	}

	out := model.CloneAnchors(anchors)
	out[i].Day = day
	out[i].StartTime = timeutil.MinutesToTime(startMin)
	out[i].EndTime = timeutil.MinutesToTime(endMin)

	desc := fmt.Sprintf("Moved %q to %s, %s-%s.", a.Title, day, out[i].StartTime, out[i].EndTime)
	return out, desc, nil
}

// Resolve applies res to c. keep_overlap works for both conflict types;
// shift_overlap needs an overlap conflict and shift_dnd a dnd one.
func Resolve(anchors []model.ScheduleEvent, windows []model.DNDWindow, c Conflict, res Resolution) ([]model.ScheduleEvent, string, error) {
	switch res {
	case KeepOverlap:
		return Move(anchors, c.EventToMoveID, c.TargetDay, "")

	case ShiftOverlap:
		if c.Type != TypeOverlap {
			return nil, "", fmt.Errorf("%s on %s conflict: %w", res, c.Type, ErrWrongResolution)
		}
		j, ok := model.FindAnchor(anchors, c.OverlappingEventID)
		if !ok {
			return nil, "", &model.NotFoundError{Kind: "anchor", ID: c.OverlappingEventID}
		}
		return Move(anchors, c.EventToMoveID, c.TargetDay, anchors[j].EndTime)

	case ShiftDND:
		if c.Type != TypeDND {
			return nil, "", fmt.Errorf("%s on %s conflict: %w", res, c.Type, ErrWrongResolution)
		}
		w, ok := dnd.Lookup(windows, c.TargetDay)
		if !ok {
			return nil, "", fmt.Errorf("no DND window on %s: %w", c.TargetDay, ErrWrongResolution)
		}
		return Move(anchors, c.EventToMoveID, c.TargetDay, w.EndTime)

	default:
		return nil, "", fmt.Errorf("unknown resolution %q: %w", res, ErrWrongResolution)
	}
}
