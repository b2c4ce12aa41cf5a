package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"anchorcal/internal/model"
	"anchorcal/internal/timeutil"
)

const productID = "-//anchorcal//anchors//EN"

// Export renders anchors as a calendar of weekly recurring events. The
// first instance of each anchor is on or after ref, in loc. Times are
// written in UTC, so BYDAY follows the UTC weekday of the first instance.
func Export(anchors []model.ScheduleEvent, ref time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Anchors")

	for _, a := range anchors {
		if !a.Day.IsValid() {
			continue
		}
		start := firstOnOrAfter(ref, a.Day, a.StartTime)
		end := start.Add(time.Duration(timeutil.Duration(a.StartTime, a.EndTime)) * time.Minute)

		ev := cal.AddEvent(a.ID)
		ev.SetDtStampTime(ref.UTC())
		ev.SetSummary(a.Title)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		for _, t := range a.ContextTags {
			ev.AddProperty(ical.ComponentPropertyCategories, string(t))
		}

		opt := rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{dayToRRule[model.DayOf(start.UTC())]},
		}
		ev.AddRrule(opt.RRuleString())
	}
	return cal.Serialize()
}

// firstOnOrAfter returns the first date at or after ref's date that falls
// on day, at wall-clock hhmm.
func firstOnOrAfter(ref time.Time, day model.Day, hhmm string) time.Time {
	delta := (int(day.Weekday()) - int(ref.Weekday()) + 7) % 7
	return timeutil.At(ref.AddDate(0, 0, delta), hhmm)
}
