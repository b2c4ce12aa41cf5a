package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/peterbourgon/diskv/v3"

	"anchorcal/internal/model"
)

// Diskv stores each document as one JSON file under the base directory.
type Diskv struct {
	d *diskv.Diskv
}

// OpenDiskv uses basePath as the document directory. Writes go through a
// temp dir next to it so a crash never leaves a half-written document.
func OpenDiskv(basePath string) (*Diskv, error) {
	if basePath == "" {
		return nil, fmt.Errorf("diskv base path is empty")
	}
	return &Diskv{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		TempDir:      filepath.Join(basePath, ".tmp"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

func (s *Diskv) Close() error { return nil }

func (s *Diskv) Load(_ context.Context, key string, v any) (bool, error) {
	if !s.d.Has(key) {
		return false, nil
	}
	data, err := s.d.Read(key)
	if err != nil {
		return false, &model.PersistenceError{Op: "load", Key: key, Err: err}
	}
	return true, decode(key, data, v)
}

func (s *Diskv) Save(_ context.Context, key string, v any) error {
	data, err := encode("save", key, v)
	if err != nil {
		return err
	}
	if err := s.d.Write(key, data); err != nil {
		return &model.PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// SaveBatch writes the documents one by one and restores the previous
// contents if any write fails.
func (s *Diskv) SaveBatch(ctx context.Context, docs map[string]any) error {
	keys := make([]string, 0, len(docs))
	encoded := make(map[string][]byte, len(docs))
	for k, v := range docs {
		data, err := encode("batch", k, v)
		if err != nil {
			return err
		}
		keys = append(keys, k)
		encoded[k] = data
	}
	sort.Strings(keys)

	prev := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if s.d.Has(k) {
			data, err := s.d.Read(k)
			if err != nil {
				return &model.PersistenceError{Op: "batch", Key: k, Err: err}
			}
			prev[k] = data
		}
	}

	var written []string
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			s.rollback(written, prev)
			return &model.PersistenceError{Op: "batch", Err: err}
		}
		if err := s.d.Write(k, encoded[k]); err != nil {
			s.rollback(written, prev)
			return &model.PersistenceError{Op: "batch", Key: k, Err: err}
		}
		written = append(written, k)
	}
	return nil
}

func (s *Diskv) rollback(written []string, prev map[string][]byte) {
	for _, k := range written {
		if data, ok := prev[k]; ok {
			_ = s.d.Write(k, data)
		} else {
			_ = s.d.Erase(k)
		}
	}
}
