// Package store persists the planner state as JSON documents keyed by a
// stable name. Backends: sqlite (default) and diskv.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"anchorcal/internal/config"
	"anchorcal/internal/model"
)

// Document keys.
const (
	KeyAnchors   = "scheduleEvents"
	KeyReminders = "smartReminders"
	KeyDND       = "dndWindows"
	KeyPause     = "pauseUntil"
	KeyStreaks   = "habitStreaks"
)

// Keys lists every document the application writes.
var Keys = []string{KeyAnchors, KeyReminders, KeyDND, KeyPause, KeyStreaks}

// Store is a document store. Load reports false when key was never saved.
// SaveBatch writes all documents or none.
type Store interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	SaveBatch(ctx context.Context, docs map[string]any) error
	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverDiskv:
		return OpenDiskv(cfg.Path)
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Migrate copies every known document from src to dst in one batch.
// It returns the keys that were copied.
func Migrate(ctx context.Context, src, dst Store) ([]string, error) {
	docs := make(map[string]any, len(Keys))
	var copied []string
	for _, key := range Keys {
		var raw json.RawMessage
		ok, err := src.Load(ctx, key, &raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		docs[key] = raw
		copied = append(copied, key)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if err := dst.SaveBatch(ctx, docs); err != nil {
		return nil, err
	}
	return copied, nil
}

func encode(op, key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &model.PersistenceError{Op: op, Key: key, Err: err}
	}
	return data, nil
}

func decode(key string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &model.PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

// Memory keeps documents in process. Fail, when set, makes every write
// return that error.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
	Fail error
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	data, ok := m.docs[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, decode(key, data, v)
}

func (m *Memory) Save(ctx context.Context, key string, v any) error {
	return m.SaveBatch(ctx, map[string]any{key: v})
}

func (m *Memory) SaveBatch(_ context.Context, docs map[string]any) error {
	encoded := make(map[string][]byte, len(docs))
	for k, v := range docs {
		data, err := encode("save", k, v)
		if err != nil {
			return err
		}
		encoded[k] = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return &model.PersistenceError{Op: "save", Err: m.Fail}
	}
	for k, v := range encoded {
		m.docs[k] = v
	}
	return nil
}

func (m *Memory) Close() error { return nil }

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Diskv)(nil)
)
