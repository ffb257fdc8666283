package store

import (
	"fmt"
	"sync"
	"time"
)

// Sequence hands out strictly increasing ids. Ids follow the wall clock in
// milliseconds but never repeat, even when several are taken within the
// same millisecond or the clock steps back.
type Sequence struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

func NewSequence(s Store, now func() time.Time) *Sequence {
	if now == nil {
		now = time.Now
	}
	return &Sequence{store: s, now: now}
}

func (q *Sequence) Next() (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var last int64
	if _, err := q.store.Read(KeySequence, &last); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	id := q.now().UnixMilli()
	if id <= last {
		id = last + 1
	}

	if err := q.store.Write(KeySequence, id); err != nil {
		return 0, fmt.Errorf("write sequence: %w", err)
	}
	return id, nil
}
