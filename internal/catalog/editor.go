package catalog

import (
	"context"
	"strings"
	"sync"
)

// Editor serializes load-modify-save cycles per catalog so that concurrent
// edits of one catalog never start from the same snapshot.
type Editor struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEditor creates an editor over store
func NewEditor(store Store) *Editor {
	return &Editor{store: store, locks: make(map[string]*sync.Mutex)}
}

// lock returns the held lock for name. Names are folded because the CSV
// store resolves them case-insensitively.
func (e *Editor) lock(name string) *sync.Mutex {
	key := strings.ToLower(name)

	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l
}

// Edit loads catalog name, applies fn and saves the result while holding the
// catalog's lock. Nothing is saved if fn fails.
func (e *Editor) Edit(ctx context.Context, name string, fn func(c *Catalog) error) error {
	l := e.lock(name)
	defer l.Unlock()

	c, err := e.store.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return e.store.Save(ctx, c)
}
