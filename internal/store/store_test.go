package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"anchorcal/internal/config"
	"anchorcal/internal/model"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "db", "anchorcal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	dk, err := OpenDiskv(filepath.Join(dir, "docs"))
	if err != nil {
		t.Fatalf("OpenDiskv: %v", err)
	}
	t.Cleanup(func() {
		sq.Close()
		dk.Close()
	})
	return map[string]Store{"sqlite": sq, "diskv": dk, "memory": NewMemory()}
}

func TestLoadMissing(t *testing.T) {
	for name, s := range backends(t) {
		var anchors []model.ScheduleEvent
		ok, err := s.Load(context.Background(), KeyAnchors, &anchors)
		if err != nil || ok {
			t.Fatalf("%s: Load missing = %v, %v; want false, nil", name, ok, err)
		}
	}
}

func TestSaveLoadDocuments(t *testing.T) {
	ctx := context.Background()
	pause := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	anchors := []model.ScheduleEvent{
		{ID: "a", Day: model.Monday, Title: "Work", StartTime: "09:00", EndTime: "17:00", ContextTags: []model.ContextTag{model.TagWork}},
	}

	for name, s := range backends(t) {
		if err := s.Save(ctx, KeyAnchors, anchors); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		if err := s.Save(ctx, KeyPause, &pause); err != nil {
			t.Fatalf("%s: Save pause: %v", name, err)
		}
		// Overwrite keeps one document per key.
		anchors2 := append(anchors, model.ScheduleEvent{ID: "b", Day: model.Tuesday, Title: "Gym", StartTime: "18:00", EndTime: "19:00"})
		if err := s.Save(ctx, KeyAnchors, anchors2); err != nil {
			t.Fatalf("%s: Save again: %v", name, err)
		}

		var got []model.ScheduleEvent
		if ok, err := s.Load(ctx, KeyAnchors, &got); err != nil || !ok {
			t.Fatalf("%s: Load: %v, %v", name, ok, err)
		}
		if len(got) != 2 || got[1].Title != "Gym" || got[0].ContextTags[0] != model.TagWork {
			t.Fatalf("%s: anchors=%+v", name, got)
		}

		var gotPause *time.Time
		if ok, err := s.Load(ctx, KeyPause, &gotPause); err != nil || !ok {
			t.Fatalf("%s: Load pause: %v, %v", name, ok, err)
		}
		if gotPause == nil || !gotPause.Equal(pause) {
			t.Fatalf("%s: pause=%v", name, gotPause)
		}
	}
}

func TestMigrateCopiesEveryDocument(t *testing.T) {
	ctx := context.Background()
	all := backends(t)
	src, dst := all["diskv"], all["sqlite"]

	windows := []model.DNDWindow{{Day: model.Monday, StartTime: "23:00", EndTime: "07:00"}}
	reminders := []model.SmartReminder{{ID: "r", EventID: "a", Status: model.StatusActive, OffsetMinutes: -10}}
	if err := src.SaveBatch(ctx, map[string]any{KeyDND: windows, KeyReminders: reminders}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	copied, err := Migrate(ctx, src, dst)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(copied) != 2 {
		t.Fatalf("copied=%v, want 2 keys", copied)
	}

	var gotWindows []model.DNDWindow
	if ok, err := dst.Load(ctx, KeyDND, &gotWindows); err != nil || !ok || len(gotWindows) != 1 || gotWindows[0].EndTime != "07:00" {
		t.Fatalf("dst windows=%+v ok=%v err=%v", gotWindows, ok, err)
	}
	var gotReminders []model.SmartReminder
	if ok, err := dst.Load(ctx, KeyReminders, &gotReminders); err != nil || !ok || gotReminders[0].OffsetMinutes != -10 {
		t.Fatalf("dst reminders=%+v ok=%v err=%v", gotReminders, ok, err)
	}
}

func TestMemoryFailureIsPersistenceError(t *testing.T) {
	m := NewMemory()
	m.Fail = errors.New("disk full")
	err := m.Save(context.Background(), KeyDND, []model.DNDWindow{})
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err=%v, want PersistenceError", err)
	}
	if ok, _ := m.Load(context.Background(), KeyDND, &[]model.DNDWindow{}); ok {
		t.Fatalf("failed write must not be visible")
	}
}

func TestOpenByDriver(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(config.StorageConfig{Driver: config.DriverDiskv, Path: filepath.Join(dir, "d")})
	if err != nil {
		t.Fatalf("Open diskv: %v", err)
	}
	if _, ok := s.(*Diskv); !ok {
		t.Fatalf("Open returned %T", s)
	}
	if _, err := Open(config.StorageConfig{Driver: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
