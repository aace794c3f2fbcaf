// Package memory provides process-local repositories for the finance
// aggregates. They back the "memory" database driver, the CLI and tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/oneflow/backend/internal/domain/shared"
)

// record is the shape every stored aggregate pointer satisfies
type record[T any] interface {
	GetID() uuid.UUID
	GetVersion() int
	IncrementVersion()
	Clone() T
}

// collection keeps aggregates in insertion order with an id index.
// Stored values are clones, so callers never share memory with the store.
type collection[T record[T]] struct {
	mu    sync.RWMutex
	order []uuid.UUID
	byID  map[uuid.UUID]T
}

func newCollection[T record[T]]() *collection[T] {
	return &collection[T]{byID: make(map[uuid.UUID]T)}
}

func (c *collection[T]) add(items ...T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		id := item.GetID()
		if _, ok := c.byID[id]; ok {
			return shared.ErrAlreadyExists
		}
		if _, ok := seen[id]; ok {
			return shared.ErrAlreadyExists
		}
		seen[id] = struct{}{}
	}
	for _, item := range items {
		id := item.GetID()
		c.byID[id] = item.Clone()
		c.order = append(c.order, id)
	}
	return nil
}

func (c *collection[T]) replace(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.byID[item.GetID()]
	if !ok {
		return shared.ErrNotFound
	}
	if current.GetVersion() != item.GetVersion() {
		return shared.ErrConcurrencyConflict
	}
	item.IncrementVersion()
	c.byID[item.GetID()] = item.Clone()
	return nil
}

func (c *collection[T]) remove(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(c.byID, id)
	for i, candidate := range c.order {
		if candidate == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *collection[T]) get(id uuid.UUID) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byID[id]
	if !ok {
		var zero T
		return zero, shared.ErrNotFound
	}
	return item.Clone(), nil
}

func (c *collection[T]) list(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		item := c.byID[id]
		if keep == nil || keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}
