package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero: never
}

// Memory is an in-process TTL cache with optional LRU eviction. Expired
// entries are dropped lazily on access.
type Memory[V any] struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front is most recent
	group singleflight.Group
	ttl   time.Duration
	max   int
	now   func() time.Time
}

// Option configures a Memory cache.
type Option func(*options)

type options struct {
	ttl time.Duration
	max int
	now func() time.Time
}

// WithTTL sets the lifetime of entries. Zero or negative keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// first. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.max = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemory creates an empty cache.
func NewMemory[V any](opts ...Option) *Memory[V] {
	o := options{ttl: time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[V]{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		ttl:   o.ttl,
		max:   o.max,
		now:   o.now,
	}
}

// Get returns the value for key or ErrNotFound.
func (m *Memory[V]) Get(key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	e := el.Value.(*entry[V])
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.remove(el)
		var zero V
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(el)
	return e.value, nil
}

// Set stores value under key with the cache TTL.
func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = m.now().Add(m.ttl)
	}

	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value, e.expiresAt = value, expiresAt
		m.lru.MoveToFront(el)
		return
	}

	m.items[key] = m.lru.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	if m.max > 0 && m.lru.Len() > m.max {
		m.remove(m.lru.Back())
	}
}

// Delete removes key.
func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
}

// Len returns the number of stored entries, including expired ones not yet
// dropped.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers missing the same key. Errors are not cached.
func (m *Memory[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, err := m.Get(key); err == nil {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		if v, err := m.Get(key); err == nil {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (m *Memory[V]) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*entry[V]).key)
}
