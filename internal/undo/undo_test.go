package undo

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"anchorcal/internal/model"
)

func state(title string) model.State {
	return model.State{
		Anchors: []model.ScheduleEvent{{ID: "a", Day: model.Monday, Title: title, StartTime: "09:00", EndTime: "10:00"}},
	}
}

func TestPushPopOrder(t *testing.T) {
	var h History
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		h.Push(fmt.Sprintf("change %d", i), base.Add(time.Duration(i)*time.Minute), state(fmt.Sprint(i)))
	}
	if h.Len() != Capacity {
		t.Fatalf("Len=%d, want %d", h.Len(), Capacity)
	}

	list := h.List()
	if list[0].Description != "change 6" || list[Capacity-1].Description != "change 2" {
		t.Fatalf("list order: first=%q last=%q", list[0].Description, list[Capacity-1].Description)
	}

	for want := 6; want >= 2; want-- {
		e, err := h.Pop()
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if e.Description != fmt.Sprintf("change %d", want) {
			t.Fatalf("Pop=%q, want change %d", e.Description, want)
		}
	}
	if _, err := h.Pop(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Pop on empty err=%v", err)
	}
}

func TestPushStoresDeepCopy(t *testing.T) {
	var h History
	before := state("Standup")
	h.Push("rename", time.Time{}, before)
	before.Anchors[0].Title = "changed after push"

	e, err := h.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !reflect.DeepEqual(e.Before, state("Standup")) {
		t.Fatalf("snapshot was aliased: %+v", e.Before)
	}
}

func TestInterleavedPushPop(t *testing.T) {
	var h History
	h.Push("a", time.Time{}, model.State{})
	h.Push("b", time.Time{}, model.State{})
	if e, _ := h.Pop(); e.Description != "b" {
		t.Fatalf("Pop=%q, want b", e.Description)
	}
	h.Push("c", time.Time{}, model.State{})
	list := h.List()
	if len(list) != 2 || list[0].Description != "c" || list[1].Description != "a" {
		t.Fatalf("list=%+v", list)
	}
}
