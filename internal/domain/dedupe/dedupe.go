// Package dedupe remembers idempotency keys of write requests so that a client
// retrying a request does not apply the same list mutation twice. It does not
// serialize different requests.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// Deduper tracks idempotency keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool
	// Unrecord forgets key so the request can be retried, e.g. after it failed
	// before touching the store.
	Unrecord(ctx context.Context, key string)
	// Size is the number of remembered keys.
	Size() int
}

// DefaultMaxKeys bounds the memory of the in-process deduper.
const DefaultMaxKeys = 10_000

type entry struct {
	key string
	gen uint64
}

// keyCache is a bounded FIFO set: once full, the oldest key is forgotten first.
type keyCache struct {
	mu      sync.Mutex
	seen    map[string]uint64
	queue   []entry
	gen     uint64
	maxKeys int
}

// NewInMemoryDeduper builds a Deduper kept in process memory.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &keyCache{maxKeys: DefaultMaxKeys}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	return d
}

// SeenAndRecord implements Deduper. Keys are compared after trimming spaces.
func (d *keyCache) SeenAndRecord(_ context.Context, key string) bool {
	key = strings.TrimSpace(key)
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxKeys > 0 {
		for len(d.seen) >= d.maxKeys {
			d.evictOldest()
		}
	}
	d.gen++
	d.seen[key] = d.gen
	if d.maxKeys > 0 {
		d.queue = append(d.queue, entry{key: key, gen: d.gen})
	}
	return false
}

// Unrecord implements Deduper.
func (d *keyCache) Unrecord(_ context.Context, key string) {
	key = strings.TrimSpace(key)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	// Unrecorded keys leave stale queue entries behind; compact when they dominate.
	if d.maxKeys > 0 && len(d.queue) > 2*d.maxKeys {
		live := d.queue[:0]
		for _, e := range d.queue {
			if g, ok := d.seen[e.key]; ok && g == e.gen {
				live = append(live, e)
			}
		}
		d.queue = live
	}
}

// Size implements Deduper.
func (d *keyCache) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evictOldest forgets the oldest live key. Callers hold d.mu.
func (d *keyCache) evictOldest() {
	for len(d.queue) > 0 {
		e := d.queue[0]
		d.queue = d.queue[1:]
		if g, ok := d.seen[e.key]; ok && g == e.gen {
			delete(d.seen, e.key)
			return
		}
	}
}
