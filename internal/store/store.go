// Package store keeps the component catalog in a backing store: a JSON file
// on disk or a Redis instance shared between workstations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// ErrNotFound is returned by Get when no record matches.
var ErrNotFound = errors.New("component not found")

// CatalogStore handles catalog persistence.
type CatalogStore interface {
	// Load returns the whole catalog in its stored order.
	Load(ctx context.Context) (model.Catalog, error)
	// Save replaces the stored catalog.
	Save(ctx context.Context, cat model.Catalog) error
	// Get returns one component by kind and name.
	Get(ctx context.Context, kind model.Kind, name string) (model.Component, error)
	// Put adds or supersedes one component.
	Put(ctx context.Context, comp model.Component) error
	Close() error
}

// find looks a component up in a loaded catalog.
func find(cat *model.Catalog, kind model.Kind, name string) (model.Component, error) {
	for _, c := range cat.Components(kind) {
		if c.Key() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
}
