// Package timeutil converts between "HH:MM" wall-clock strings and minutes
// past midnight. Parsing is total: bad input reads as midnight.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

// TimeToMinutes parses "HH:MM". Empty or malformed input returns 0.
func TimeToMinutes(t string) int {
	h, m, ok := split(t)
	if !ok {
		return 0
	}
	return h*60 + m
}

// MinutesToTime formats minutes past midnight as zero-padded "HH:MM",
// wrapping modulo 24h.
func MinutesToTime(m int) string {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Valid reports whether t is a well-formed "HH:MM" between 00:00 and 23:59.
func Valid(t string) bool {
	h, m, ok := split(t)
	return ok && h < 24 && m < 60
}

// Overlaps reports half-open interval overlap of [startA,endA) and
// [startB,endB). Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB string) bool {
	return OverlapsMinutes(TimeToMinutes(startA), TimeToMinutes(endA), TimeToMinutes(startB), TimeToMinutes(endB))
}

func OverlapsMinutes(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// Duration is end - start in minutes.
func Duration(start, end string) int {
	return TimeToMinutes(end) - TimeToMinutes(start)
}

// At places the wall-clock time on day's date in day's location.
func At(day time.Time, hhmm string) time.Time {
	y, mo, d := day.Date()
	m := TimeToMinutes(hhmm)
	return time.Date(y, mo, d, m/60, m%60, 0, 0, day.Location())
}

// MinuteOfDay is t's wall-clock position in minutes past midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func split(t string) (int, int, bool) {
	hs, ms, found := strings.Cut(strings.TrimSpace(t), ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 {
		return 0, 0, false
	}
	return h, m, true
}
