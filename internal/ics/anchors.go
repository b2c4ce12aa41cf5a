package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

var dayToRRule = map[model.Day]rrule.Weekday{
	model.Monday:    rrule.MO,
	model.Tuesday:   rrule.TU,
	model.Wednesday: rrule.WE,
	model.Thursday:  rrule.TH,
	model.Friday:    rrule.FR,
	model.Saturday:  rrule.SA,
	model.Sunday:    rrule.SU,
}

// Skipped explains why an event did not become an anchor.
type Skipped struct {
	UID    string `json:"uid"`
	Reason string `json:"reason"`
}

// ToAnchors converts timed events into weekly anchors in loc. A weekly
// RRULE contributes one anchor per BYDAY; any other event yields one anchor
// on its start weekday. Anchor ids derive from source, UID and day so a
// re-import replaces instead of duplicating.
func ToAnchors(events []Event, loc *time.Location) ([]model.ScheduleEvent, []Skipped) {
	if loc == nil {
		loc = time.Local
	}

	var anchors []model.ScheduleEvent
	var skipped []Skipped
	seen := make(map[string]bool)

	for _, ev := range events {
		skip := func(reason string) { skipped = append(skipped, Skipped{UID: ev.UID, Reason: reason}) }

		switch {
		case ev.IsOverride:
			skip("recurrence override")
			continue
		case ev.AllDay:
			skip("all-day event")
			continue
		case ev.Summary == "":
			skip("missing summary")
			continue
		}

		start, end := ev.Start.In(loc), ev.End.In(loc)
		if !sameDay(start, end) || !end.After(start) {
			skip("does not start and end on the same day")
			continue
		}

		days, err := eventDays(ev, start)
		if err != nil {
			skip(err.Error())
			continue
		}

		tags := contextTags(ev.Categories)
		for _, d := range days {
			id := anchorID(ev, d)
			if seen[id] {
				continue
			}
			seen[id] = true
			anchors = append(anchors, model.ScheduleEvent{
				ID:          id,
				Day:         d,
				Title:       ev.Summary,
				StartTime:   timeutil.MinutesToTime(timeutil.MinuteOfDay(start)),
				EndTime:     timeutil.MinutesToTime(timeutil.MinuteOfDay(end)),
				ContextTags: append([]model.ContextTag(nil), tags...),
			})
		}
	}
	return anchors, skipped
}

func eventDays(ev Event, start time.Time) ([]model.Day, error) {
	if ev.RawRRule == "" {
		return []model.Day{model.DayOf(start)}, nil
	}
	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("bad RRULE: %v", err)
	}
	if opt.Freq != rrule.WEEKLY && opt.Freq != rrule.DAILY {
		return nil, fmt.Errorf("unsupported recurrence frequency %v", opt.Freq)
	}
	if opt.Freq == rrule.DAILY && len(opt.Byweekday) == 0 {
		return model.Week, nil
	}
	if len(opt.Byweekday) == 0 {
		return []model.Day{model.DayOf(start)}, nil
	}
	// BYDAY is relative to DTSTART's zone; shift it when converting to loc
	// moves the start onto another weekday.
	shift := (int(start.Weekday()) - int(ev.Start.Weekday()) + 7) % 7
	days := make([]model.Day, 0, len(opt.Byweekday))
	for _, w := range opt.Byweekday {
		days = append(days, model.Week[(w.Day()+shift)%7])
	}
	return days, nil
}

func contextTags(categories []string) []model.ContextTag {
	known := []model.ContextTag{
		model.TagWork, model.TagPersonal, model.TagHighEnergy, model.TagLowEnergy,
		model.TagRelaxed, model.TagRushed, model.TagRecovery,
	}
	var out []model.ContextTag
	for _, c := range categories {
		for _, k := range known {
			if strings.EqualFold(c, string(k)) {
				out = append(out, k)
			}
		}
	}
	if len(out) == 0 {
		out = []model.ContextTag{model.TagPersonal}
	}
	return out
}

func anchorID(ev Event, d model.Day) string {
	return fmt.Sprintf("ics-%s-%s-%s", ev.Source.ID, ev.UID, strings.ToLower(string(d))[:3])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
