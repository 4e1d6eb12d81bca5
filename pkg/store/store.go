// Package store keeps generated documents in JSON files, one file per collection.
package store

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"storyroom/pkg/utils"
)

var ErrNotFound = errors.New("store: document not found")

type Document[T any] struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      T         `json:"data"`
}

// Collection is a set of documents persisted to <dir>/<name>.json. Every write
// rewrites the file.
type Collection[T any] struct {
	name string
	path string

	mu   sync.RWMutex
	docs map[string]Document[T]
}

// Open loads a collection, starting empty when its file does not exist yet.
func Open[T any](dir, name string) (*Collection[T], error) {
	c := &Collection[T]{
		name: name,
		path: filepath.Join(dir, utils.SanitizeFilename(name)+".json"),
		docs: make(map[string]Document[T]),
	}

	docs, err := utils.Load[map[string]Document[T]](c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	case docs != nil:
		c.docs = docs
	}
	return c, nil
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Add stores data under a new, time-ordered ID.
func (c *Collection[T]) Add(owner string, data T) (Document[T], error) {
	now := time.Now().UTC()
	doc := Document[T]{
		ID:        ksuid.New().String(),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
		Data:      data,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.ID] = doc
	return doc, c.flushLocked()
}

// Set replaces the data of an existing document.
func (c *Collection[T]) Set(id string, data T) (Document[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return Document[T]{}, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
	}
	doc.Data = data
	doc.UpdatedAt = time.Now().UTC()
	c.docs[id] = doc
	return doc, c.flushLocked()
}

func (c *Collection[T]) Get(id string) (Document[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return Document[T]{}, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
	}
	return doc, nil
}

// List returns the documents of owner, oldest first. An empty owner lists everything.
func (c *Collection[T]) List(owner string) []Document[T] {
	c.mu.RLock()
	out := make([]Document[T], 0, len(c.docs))
	for _, d := range c.docs {
		if owner == "" || d.Owner == owner {
			out = append(out, d)
		}
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b Document[T]) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (c *Collection[T]) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
	}
	delete(c.docs, id)
	return c.flushLocked()
}

// Flush writes the collection to disk.
func (c *Collection[T]) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flushLocked()
}

func (c *Collection[T]) flushLocked() error {
	if err := utils.Save(c.path, c.docs); err != nil {
		return fmt.Errorf("store: save %s: %w", c.name, err)
	}
	return nil
}
