// Package undo keeps the most recent state snapshots so the latest mutation
// can be rolled back.
package undo

import (
	"errors"
	"time"

	"anchorcal/internal/model"
)

// Capacity is the number of mutations kept.
const Capacity = 5

var ErrEmpty = errors.New("nothing to undo")

// Entry is the state as it was before the described mutation.
type Entry struct {
	Description string      `json:"description"`
	At          time.Time   `json:"at"`
	Before      model.State `json:"-"`
}

// History is a fixed-size ring buffer; pushing onto a full buffer drops the
// oldest entry. It is not safe for concurrent use.
type History struct {
	buf  [Capacity]Entry
	head int // next write position
	n    int
}

// Push stores a deep copy of before.
func (h *History) Push(desc string, at time.Time, before model.State) {
	h.buf[h.head] = Entry{Description: desc, At: at, Before: before.Clone()}
	h.head = (h.head + 1) % Capacity
	if h.n < Capacity {
		h.n++
	}
}

// Pop removes and returns the newest entry.
func (h *History) Pop() (Entry, error) {
	if h.n == 0 {
		return Entry{}, ErrEmpty
	}
	h.head = (h.head - 1 + Capacity) % Capacity
	e := h.buf[h.head]
	h.buf[h.head] = Entry{}
	h.n--
	return e, nil
}

// List returns the entries newest first.
func (h *History) List() []Entry {
	out := make([]Entry, 0, h.n)
	for i := 1; i <= h.n; i++ {
		out = append(out, h.buf[(h.head-i+Capacity)%Capacity])
	}
	return out
}

func (h *History) Len() int { return h.n }
