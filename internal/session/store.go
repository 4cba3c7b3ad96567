package session

import (
	"context"
	"sync"
)

// Store holds live sessions keyed by id. Operations on one id are
// serialized through a lease; different ids never contend beyond the map
// lookup.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	lease chan struct{} // one slot: held for the duration of an operation
	sess  *Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	s.Init()
	return s
}

// Init resets the store to empty.
func (s *Store) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Clear drops every session. Operations already holding a lease finish
// against their own copy; their commits are lost.
func (s *Store) Clear() {
	s.Init()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// IDs returns every live session id.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) insert(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = &entry{lease: make(chan struct{}, 1), sess: sess}
}

// acquire waits for exclusive use of id. Waiting honours ctx; once the
// lease is held the caller runs to completion and must call release.
func (s *Store) acquire(ctx context.Context, id string) (*entry, func(), error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil, errorf(CodeNotFound, "unknown session %q", id)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	select {
	case e.lease <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	return e, func() { <-e.lease }, nil
}
