package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

const DefaultMaxTurns = 5

// HistoryStore keeps the bounded per-session conversation window in memory.
// Sessions idle for an hour are evicted wholesale; the window itself is a
// FIFO capped at maxTurns, oldest turn dropped first.
type HistoryStore struct {
	cache    *cache.Cache
	maxTurns int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewHistoryStore(maxTurns int) *HistoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	s := &HistoryStore{
		cache:    c,
		maxTurns: maxTurns,
		locks:    make(map[string]*sync.Mutex),
	}
	// Drop the session lock together with the window, whether the session
	// expired or was cleared. Evicted sessions are idle, so no turn holds
	// the lock when it goes.
	c.OnEvicted(func(sessionID string, _ interface{}) {
		s.mu.Lock()
		delete(s.locks, sessionID)
		s.mu.Unlock()
	})
	return s
}

func (s *HistoryStore) Window(sessionID string) []store.Turn {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	x, found := s.cache.Get(sessionID)
	if !found {
		return nil
	}
	turns := x.([]store.Turn)
	out := make([]store.Turn, len(turns))
	copy(out, turns)
	return out
}

func (s *HistoryStore) Append(sessionID string, turn store.Turn) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	var turns []store.Turn
	if x, found := s.cache.Get(sessionID); found {
		turns = x.([]store.Turn)
	}
	turns = append(turns, turn)
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.cache.Set(sessionID, turns, cache.DefaultExpiration)
}

func (s *HistoryStore) Clear(sessionID string) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.cache.Delete(sessionID)
}

// sessionLock hands out one mutex per session id. Entries live as long as
// the session's cache entry; eviction removes both.
func (s *HistoryStore) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
