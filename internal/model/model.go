package model

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday label as stored on anchors and DND windows.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Week lists days in calendar order (Monday first).
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Day) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	default:
		return false
	}
}

// ParseDay accepts full or three-letter names in any case.
func ParseDay(s string) (Day, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Week {
		name := strings.ToLower(string(d))
		if in == name || (len(in) == 3 && strings.HasPrefix(name, in)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid day: %q", s)
}

// DayOf returns the weekday label of t in t's location.
func DayOf(t time.Time) Day {
	return FromWeekday(t.Weekday())
}

func FromWeekday(w time.Weekday) Day {
	switch w {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

func (d Day) Weekday() time.Weekday {
	switch d {
	case Monday:
		return time.Monday
	case Tuesday:
		return time.Tuesday
	case Wednesday:
		return time.Wednesday
	case Thursday:
		return time.Thursday
	case Friday:
		return time.Friday
	case Saturday:
		return time.Saturday
	default:
		return time.Sunday
	}
}

type ContextTag string

const (
	TagWork       ContextTag = "Work"
	TagPersonal   ContextTag = "Personal"
	TagHighEnergy ContextTag = "HighEnergy"
	TagLowEnergy  ContextTag = "LowEnergy"
	TagRelaxed    ContextTag = "Relaxed"
	TagRushed     ContextTag = "Rushed"
	TagRecovery   ContextTag = "Recovery"
)

// ScheduleEvent is a recurring weekly anchor. Times are "HH:MM" on the same
// day with StartTime < EndTime.
type ScheduleEvent struct {
	ID            string       `json:"id"`
	Day           Day          `json:"day"`
	Title         string       `json:"title"`
	StartTime     string       `json:"startTime"`
	EndTime       string       `json:"endTime"`
	ContextTags   []ContextTag `json:"contextTags,omitempty"`
	BufferMinutes *int         `json:"bufferMinutes,omitempty"`
}

func (e ScheduleEvent) HasTag(tags ...ContextTag) bool {
	for _, have := range e.ContextTags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (e ScheduleEvent) Clone() ScheduleEvent {
	out := e
	if e.ContextTags != nil {
		out.ContextTags = append([]ContextTag(nil), e.ContextTags...)
	}
	if e.BufferMinutes != nil {
		b := *e.BufferMinutes
		out.BufferMinutes = &b
	}
	return out
}

// DNDWindow is a per-weekday Do-Not-Disturb interval. EndTime < StartTime
// encodes an overnight window.
type DNDWindow struct {
	Day       Day    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// IsSet reports whether both boundaries are present.
func (w DNDWindow) IsSet() bool {
	return w.StartTime != "" && w.EndTime != ""
}

// Chunk is the active unit of a task breakdown, as far as theming cares.
type Chunk struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	EnergyTag  EnergyTag `json:"energyTag"`
	IsComplete bool      `json:"isComplete"`
}

type EnergyTag string

const (
	EnergyTedious  EnergyTag = "Tedious"
	EnergyAdmin    EnergyTag = "Admin"
	EnergyCreative EnergyTag = "Creative"
	EnergySocial   EnergyTag = "Social"
	EnergyErrand   EnergyTag = "Errand"
)

type Theme string

const (
	ThemeEvening  Theme = "Evening"
	ThemeFocus    Theme = "Focus"
	ThemeCreative Theme = "Creative"
	ThemeRecovery Theme = "Recovery"
)

// Occurrence is one concrete instance of an anchor on a calendar date.
type Occurrence struct {
	AnchorID string `json:"anchor_id"`
	Title    string `json:"title"`

	// InstanceKey uniquely identifies this occurrence (anchor id + local start).
	InstanceKey string `json:"instance_key"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
