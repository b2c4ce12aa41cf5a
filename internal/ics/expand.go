package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

const defaultMaxOccurrencesPerAnchor = 500

// ExpandConfig bounds an expansion.
type ExpandConfig struct {
	// Location for wall-clock anchor times. Defaults to time.Local.
	Location *time.Location

	// Occurrences starting in [RangeStart, RangeEnd] are returned.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerAnchor caps each anchor; zero means the default.
	MaxOccurrencesPerAnchor int
}

// WeeklyRule is the weekly recurrence of anchor a starting at dtstart.
func WeeklyRule(a model.ScheduleEvent, dtstart time.Time) (*rrule.RRule, error) {
	wd, ok := dayToRRule[a.Day]
	if !ok {
		return nil, errors.New("invalid anchor day " + string(a.Day))
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Byweekday: []rrule.Weekday{wd},
	})
}

// ExpandAnchors turns weekly anchors into concrete occurrences, sorted by
// start time.
func ExpandAnchors(anchors []model.ScheduleEvent, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerAnchor <= 0 {
		cfg.MaxOccurrencesPerAnchor = defaultMaxOccurrencesPerAnchor
	}

	rangeStart := cfg.RangeStart.In(cfg.Location)
	rangeEnd := cfg.RangeEnd.In(cfg.Location)
	// Start the rule a week early so the first in-range weekday is covered.
	base := rangeStart.AddDate(0, 0, -7)

	out := make([]model.Occurrence, 0)
	for _, a := range anchors {
		r, err := WeeklyRule(a, timeutil.At(base, a.StartTime))
		if err != nil {
			appLog.Warn("expand: anchor skipped", "anchor", a.ID, "err", err)
			continue
		}
		starts := r.Between(rangeStart, rangeEnd, true)
		if len(starts) > cfg.MaxOccurrencesPerAnchor {
			appLog.Warn("expand: occurrences truncated", "anchor", a.ID, "cap", cfg.MaxOccurrencesPerAnchor)
			starts = starts[:cfg.MaxOccurrencesPerAnchor]
		}

		dur := time.Duration(timeutil.Duration(a.StartTime, a.EndTime)) * time.Minute
		for _, s := range starts {
			out = append(out, model.Occurrence{
				AnchorID:    a.ID,
				Title:       a.Title,
				InstanceKey: a.ID + "@" + s.Format(time.RFC3339),
				Start:       s,
				End:         s.Add(dur),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}
