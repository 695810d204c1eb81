package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Source produces a complete catalog from somewhere.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Catalog, error)
}

// ReloadFunc observes every reload attempt.
type ReloadFunc func(source, version string, err error)

// Store publishes the current catalog. Readers take one reference per
// evaluation; replacements swap the whole pointer, so an evaluation never
// sees a half-updated catalog.
type Store struct {
	current atomic.Pointer[Catalog]

	mu       sync.Mutex
	onReload []ReloadFunc
}

// NewStore validates c and publishes it.
func NewStore(c *Catalog) (*Store, error) {
	s := &Store{}
	if err := s.Swap(c); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the published catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap validates c and, if valid, replaces the published catalog. An invalid
// catalog is rejected and the previous one stays in place.
func (s *Store) Swap(c *Catalog) error {
	if c == nil {
		return errors.New("catalog is nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}

// OnReload registers an observer for Reload outcomes.
func (s *Store) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload loads a catalog from src and swaps it in.
func (s *Store) Reload(ctx context.Context, src Source) (*Catalog, error) {
	c, err := src.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load catalog from %s: %w", src.Name(), err)
	} else {
		err = s.Swap(c)
	}

	version := ""
	if c != nil {
		version = c.Version
	}
	s.mu.Lock()
	observers := append([]ReloadFunc(nil), s.onReload...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(src.Name(), version, err)
	}

	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuiltinSource serves Default().
type BuiltinSource struct{}

func (BuiltinSource) Name() string { return "builtin" }

func (BuiltinSource) Load(context.Context) (*Catalog, error) { return Default(), nil }
