// Package dedupe tracks applied fire notice IDs for at-most-once handling.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records seen fire IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a notice that failed to apply can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps IDs in a map. In bounded mode a ring of insertion
// order evicts the oldest ID once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> insertion sequence
	ring    []entry
	next    int
	seq     uint64
	maxSize int
}

type entry struct {
	id  string
	seq uint64
}

// NewInMemoryDeduper creates a deduper. maxSize <= 0 keeps every ID.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]uint64)
	if d.maxSize > 0 {
		d.ring = make([]entry, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.seq++
	if d.maxSize > 0 {
		old := d.ring[d.next]
		if s, ok := d.seen[old.id]; ok && s == old.seq {
			delete(d.seen, old.id)
		}
		d.ring[d.next] = entry{id: id, seq: d.seq}
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = d.seq
	return false
}

// Unrecord drops id from the map. Its ring slot is ignored on eviction
// because the stored sequence no longer matches.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
