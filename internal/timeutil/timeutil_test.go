package timeutil

import (
	"testing"
	"time"
)

func TestTimeToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"09:05", 545},
		{"23:59", 1439},
		{"7:30", 450},
		{"", 0},
		{"noon", 0},
		{"12:xx", 0},
	}
	for _, c := range cases {
		if got := TimeToMinutes(c.in); got != c.want {
			t.Fatalf("TimeToMinutes(%q)=%d, want %d", c.in, got, c.want)
		}
	}
}

func TestMinutesToTimeWraps(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		545:  "09:05",
		1440: "00:00",
		1530: "01:30",
		-30:  "23:30",
	}
	for in, want := range cases {
		if got := MinutesToTime(in); got != want {
			t.Fatalf("MinutesToTime(%d)=%q, want %q", in, got, want)
		}
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	if Overlaps("09:00", "10:00", "10:00", "11:00") {
		t.Fatalf("touching intervals must not overlap")
	}
	if !Overlaps("09:00", "10:00", "09:30", "10:30") {
		t.Fatalf("expected overlap")
	}
	if !Overlaps("09:00", "12:00", "10:00", "11:00") {
		t.Fatalf("containment is overlap")
	}
}

func TestOverlapsSymmetric(t *testing.T) {
	points := []int{0, 30, 60, 90, 120, 600, 1439}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				for _, d := range points {
					if OverlapsMinutes(a, b, c, d) != OverlapsMinutes(c, d, a, b) {
						t.Fatalf("asymmetric for [%d,%d) vs [%d,%d)", a, b, c, d)
					}
				}
			}
		}
	}
}

func TestValid(t *testing.T) {
	for _, ok := range []string{"00:00", "23:59", "07:00"} {
		if !Valid(ok) {
			t.Fatalf("Valid(%q)=false", ok)
		}
	}
	for _, bad := range []string{"", "24:00", "12:60", "ab:cd", "1200"} {
		if Valid(bad) {
			t.Fatalf("Valid(%q)=true", bad)
		}
	}
}

func TestAt(t *testing.T) {
	day := time.Date(2024, 3, 4, 17, 45, 12, 0, time.UTC)
	got := At(day, "08:50")
	want := time.Date(2024, 3, 4, 8, 50, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At=%v, want %v", got, want)
	}
	if MinuteOfDay(got) != 530 {
		t.Fatalf("MinuteOfDay=%d, want 530", MinuteOfDay(got))
	}
}
