package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/metrics"
	"github.com/pageza/recipematch/backend/internal/model"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// newSessionID returns an unpredictable session token.
func newSessionID() string {
	return uuid.New().String()
}

func pageAt(results model.RankedResult, cursor int) model.Page {
	return model.Page{
		Recipe: results[cursor].Recipe,
		Index:  cursor,
		Total:  len(results),
	}
}

// clampNext is the cursor after one advance over total results.
func clampNext(cursor, total int) int {
	if cursor+1 > total-1 {
		return total - 1
	}
	return cursor + 1
}

type memorySession struct {
	mu       sync.Mutex
	results  model.RankedResult
	cursor   int
	lastSeen time.Time
}

// MemorySessionStore keeps sessions in process memory. Operations on one session
// are serialized by that session's mutex; different sessions never contend beyond
// the brief map lookup. A janitor goroutine evicts sessions idle longer than the TTL.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// MemoryStoreOption customizes a MemorySessionStore.
type MemoryStoreOption func(*MemorySessionStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemorySessionStore) { s.now = now }
}

// NewMemorySessionStore creates the store and starts its janitor, which runs
// every sweep interval (ttl/2 when sweep is zero). Call Close to stop it.
func NewMemorySessionStore(ttl, sweep time.Duration, opts ...MemoryStoreOption) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if sweep <= 0 {
		sweep = ttl / 2
	}
	s := &MemorySessionStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor(sweep)
	return s
}

// Create implements SessionStore.
func (s *MemorySessionStore) Create(ctx context.Context, results model.RankedResult) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("cannot create a session without results")
	}
	snapshot := make(model.RankedResult, len(results))
	copy(snapshot, results)

	id := newSessionID()
	s.mu.Lock()
	s.sessions[id] = &memorySession{results: snapshot, lastSeen: s.now()}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	logging.Ctx(ctx).Debug().Str("session_id", id).Int("total", len(snapshot)).Msg("session created")
	return id, nil
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, id string) (model.Page, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return model.Page{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return pageAt(sess.results, sess.cursor), nil
}

// Advance implements SessionStore.
func (s *MemorySessionStore) Advance(_ context.Context, id string) (model.Page, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return model.Page{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cursor = clampNext(sess.cursor, len(sess.results))
	sess.lastSeen = s.now()
	return pageAt(sess.results, sess.cursor), nil
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))
	return nil
}

func (s *MemorySessionStore) lookup(id string) (*memorySession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	expired := s.now().Sub(sess.lastSeen) > s.ttl
	sess.mu.Unlock()
	if expired {
		s.evict(id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Len reports the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts every session idle longer than the TTL and returns how many went.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if evicted > 0 {
		metrics.SessionsEvicted.Add(float64(evicted))
		logging.Debug().Int("evicted", evicted).Msg("expired sessions evicted")
	}
	metrics.ActiveSessions.Set(float64(count))
	return evicted
}

func (s *MemorySessionStore) evict(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.SessionsEvicted.Inc()
	metrics.ActiveSessions.Set(float64(count))
}

func (s *MemorySessionStore) janitor(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemorySessionStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}
