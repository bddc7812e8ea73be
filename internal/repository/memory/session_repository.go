package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"oral-coach-be/internal/entity"
)

type SessionRepository struct {
	cache *cache.Cache

	// One lock per live session. Turns against the same session must be
	// serialized; independent sessions run in parallel.
	locks sync.Map // map[string]*sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{cache: c}
}

func (r *SessionRepository) Save(session *entity.PracticeSession) {
	r.cache.Set(session.Key, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionKey string) (*entity.PracticeSession, bool) {
	if x, found := r.cache.Get(sessionKey); found {
		return x.(*entity.PracticeSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionKey string) {
	r.cache.Delete(sessionKey)
	r.locks.Delete(sessionKey)
}

// Lock acquires the per-session mutex. The caller must invoke the
// returned function to release it.
func (r *SessionRepository) Lock(sessionKey string) func() {
	mu, _ := r.locks.LoadOrStore(sessionKey, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
