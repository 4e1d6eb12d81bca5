// Package flight coalesces concurrent work on the same key and keeps finished
// results around for a while.
package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

type Cache[K comparable, V any] struct {
	// finished holds completed results. Each entry keeps a strong reference
	// until its deadline passes, after which only the weak pointer remains.
	finished map[K]*entry[V]
	fmu      sync.RWMutex

	pending map[K]*job[V]
	pmu     sync.Mutex

	// ttl is the strong-hold duration in nanoseconds; <= 0 never drops it.
	ttl atomic.Int64
}

type entry[V any] struct {
	w        weak.Pointer[V]
	strong   *V
	deadline time.Time // zero => infinite
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		pending:  make(map[K]*job[V]),
	}
	c.Expiry(ttl)
	return c
}

// Expiry sets the strong-hold duration for future writes.
func (c *Cache[K, V]) Expiry(d time.Duration) {
	c.ttl.Store(int64(max(d, 0)))
}

// Peek returns a finished value without starting any work.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	e, ok := c.loadEntry(k)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value()
}

// Get returns the cached value for k, joining an in-flight call or running fn.
// Failed calls are not cached. A waiter whose ctx ends stops waiting but does
// not cancel the shared work.
func (c *Cache[K, V]) Get(ctx context.Context, k K, fn func() (V, error)) (V, error) {
	c.pmu.Lock()
	if e, ok := c.loadEntry(k); ok {
		if v, ok := e.value(); ok {
			c.pmu.Unlock()
			return v, nil
		}
		c.fmu.Lock()
		if cur, ok := c.finished[k]; ok && cur == e && e.w.Value() == nil {
			delete(c.finished, k)
		}
		c.fmu.Unlock()
	}

	if j, ok := c.pending[k]; ok {
		c.pmu.Unlock()
		return wait(ctx, j)
	}

	j := &job[V]{done: make(chan struct{})}
	c.pending[k] = j
	c.pmu.Unlock()

	c.run(k, j, fn)
	return j.val, j.err
}

// Force waits out any in-flight call for k, then always runs fn.
func (c *Cache[K, V]) Force(ctx context.Context, k K, fn func() (V, error)) (V, error) {
	var j *job[V]
	for {
		c.pmu.Lock()
		if existing, ok := c.pending[k]; ok {
			c.pmu.Unlock()
			select {
			case <-existing.done:
				continue
			case <-ctx.Done():
				var zero V
				return zero, ctx.Err()
			}
		}
		j = &job[V]{done: make(chan struct{})}
		c.pending[k] = j
		c.pmu.Unlock()
		break
	}

	c.run(k, j, fn)
	return j.val, j.err
}

// Forget drops a finished value.
func (c *Cache[K, V]) Forget(k K) {
	c.fmu.Lock()
	delete(c.finished, k)
	c.fmu.Unlock()
}

func (c *Cache[K, V]) run(k K, j *job[V], fn func() (V, error)) {
	defer func() {
		c.pmu.Lock()
		close(j.done)
		delete(c.pending, k)
		c.pmu.Unlock()
	}()

	j.val, j.err = fn()
	if j.err == nil {
		c.storeEntry(k, j.val)
	}
}

func wait[V any](ctx context.Context, j *job[V]) (V, error) {
	select {
	case <-j.done:
		return j.val, j.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (e *entry[V]) value() (V, bool) {
	if vp := e.w.Value(); vp != nil {
		return *vp, true
	}
	var zero V
	return zero, false
}

func (c *Cache[K, V]) loadEntry(k K) (*entry[V], bool) {
	c.fmu.RLock()
	e, ok := c.finished[k]
	c.fmu.RUnlock()
	if !ok {
		return nil, false
	}

	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		c.fmu.Lock()
		if cur, ok := c.finished[k]; ok && cur == e && e.strong != nil && time.Now().After(e.deadline) {
			e.strong = nil
		}
		c.fmu.Unlock()
	}
	return e, true
}

func (c *Cache[K, V]) storeEntry(k K, val V) {
	// Dedicated heap cell so the weak pointer has a stable address.
	v := new(V)
	*v = val

	e := &entry[V]{w: weak.Make(v), strong: v}
	if d := time.Duration(c.ttl.Load()); d > 0 {
		e.deadline = time.Now().Add(d)
	}

	c.fmu.Lock()
	c.finished[k] = e
	c.fmu.Unlock()
}
