package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/project"
)

// FileStore keeps the catalog in a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created with the
// built-in catalog on first load.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (model.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Catalog{}, err
	}
	cat, err := project.LoadCatalog(s.path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

func (s *FileStore) Save(ctx context.Context, cat model.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := project.SaveCatalog(s.path, cat); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, kind model.Kind, name string) (model.Component, error) {
	cat, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return find(&cat, kind, name)
}

func (s *FileStore) Put(ctx context.Context, comp model.Component) error {
	cat, err := s.Load(ctx)
	if err != nil {
		return err
	}
	cat.Put(comp)
	return s.Save(ctx, cat)
}

func (s *FileStore) Close() error { return nil }
