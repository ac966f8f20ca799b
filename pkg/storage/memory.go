package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryKV is an in-memory KV implementation used in tests and as the
// lowest-effort local backend. It is safe for concurrent use.
type MemoryKV struct {
	mu      sync.RWMutex
	users   map[string]map[string]json.RawMessage
	subs    map[string]map[int]func(Record)
	nextSub int
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		users: make(map[string]map[string]json.RawMessage),
		subs:  make(map[string]map[int]func(Record)),
	}
}

// Get implements KV.
func (s *MemoryKV) Get(ctx context.Context, userID string, fields ...string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := make(Record, len(fields))
	state, ok := s.users[userID]
	if !ok {
		return rec, nil
	}
	for _, f := range fields {
		if v, ok := state[f]; ok {
			rec[f] = append(json.RawMessage(nil), v...)
		}
	}
	return rec, nil
}

// Set implements KV.
func (s *MemoryKV) Set(ctx context.Context, userID string, patch Record) error {
	s.mu.Lock()
	state, ok := s.users[userID]
	if !ok {
		state = make(map[string]json.RawMessage)
		s.users[userID] = state
	}
	for f, v := range patch {
		state[f] = append(json.RawMessage(nil), v...)
	}
	var fns []func(Record)
	for _, fn := range s.subs[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(patch)
	}
	return nil
}

// Subscribe implements KV.
func (s *MemoryKV) Subscribe(ctx context.Context, userID string, fn func(Record)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]func(Record))
	}
	id := s.nextSub
	s.nextSub++
	s.subs[userID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[userID], id)
	}, nil
}
