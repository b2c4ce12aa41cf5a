// Package clock supplies "now" to the scheduling code so it can be tested
// without real time passing. Only cmd/ should construct a Real clock.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real reads the system time in Loc (time.Local when nil).
type Real struct {
	Loc *time.Location
}

func (r Real) Now() time.Time {
	if r.Loc == nil {
		return time.Now()
	}
	return time.Now().In(r.Loc)
}

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// Func adapts a function, e.g. a test clock that advances.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

var (
	_ Clock = Real{}
	_ Clock = Fixed{}
	_ Clock = Func(nil)
)
