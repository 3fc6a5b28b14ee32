package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amana-transportation/fleetview/internal/source"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// Store keeps the live dashboard sessions
type Store struct {
	src      source.Source
	ttl      time.Duration
	observer Observer
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	loads    sync.WaitGroup
}

// NewStore creates a store whose sessions load from src and expire after
// ttl without activity. A ttl <= 0 disables expiry.
func NewStore(src source.Source, ttl time.Duration, observer Observer) *Store {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Store{
		src:      src,
		ttl:      ttl,
		observer: observer,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create mounts a new session and starts its initial load in the background
func (st *Store) Create() *Session {
	id := uuid.New().String()
	s := newSession(id, st.observer, st.now)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	st.observer.SessionOpened(id)

	st.loads.Add(1)
	go func() {
		defer st.loads.Done()
		defer cancel()
		s.Load(ctx, st.src)
	}()
	return s
}

// Get returns a live session
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return st.close(s)
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict closes sessions idle for longer than the TTL and returns how many
func (st *Store) Evict() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		st.close(s)
	}
	if len(expired) > 0 {
		log.Printf("Sessions: evicted %d idle dashboards", len(expired))
	}
	return len(expired)
}

// Run evicts idle sessions every interval until ctx is done
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Evict()
		}
	}
}

// Close closes every session and waits for pending loads to return
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		st.close(s)
	}
	st.loads.Wait()
}

func (st *Store) close(s *Session) error {
	err := s.Close()
	if err != nil {
		log.Printf("Sessions: failed to close %s: %v", s.ID(), err)
	}
	st.observer.SessionClosed(s.ID())
	return err
}
