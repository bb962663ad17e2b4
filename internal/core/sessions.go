package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// draftEntry is one cached draft session. close runs once, whichever of
// expiry, discard or shutdown gets there first.
type draftEntry struct {
	session *workflow.Session
	once    sync.Once
	release func()
}

func (e *draftEntry) close() {
	e.once.Do(func() {
		e.session.Close()
		if e.release != nil {
			e.release()
		}
	})
}

// sessionStore keeps draft sessions in a TTL cache. Each access extends the
// TTL; expired sessions are closed by the cache janitor so their upload
// timers stop.
type sessionStore struct {
	cache *cache.Cache
}

func newSessionStore(ttl, cleanup time.Duration) *sessionStore {
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(id string, v interface{}) {
		if e, ok := v.(*draftEntry); ok {
			e.close()
			slog.Debug("draft session closed", "draft_id", id)
		}
	})
	return &sessionStore{cache: c}
}

func (s *sessionStore) put(id string, e *draftEntry) {
	s.cache.SetDefault(id, e)
}

// get returns the live session for id and refreshes its TTL.
func (s *sessionStore) get(id string) (*workflow.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	e := v.(*draftEntry)
	if e.session.Closed() {
		return nil, false
	}
	if err := s.cache.Replace(id, e, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return e.session, true
}

// remove closes and drops id. It reports whether id was present.
func (s *sessionStore) remove(id string) bool {
	if _, ok := s.cache.Get(id); !ok {
		return false
	}
	s.cache.Delete(id)
	return true
}

func (s *sessionStore) count() int {
	return s.cache.ItemCount()
}

// sessions returns every live session.
func (s *sessionStore) sessions() []*workflow.Session {
	items := s.cache.Items()
	out := make([]*workflow.Session, 0, len(items))
	for _, it := range items {
		if e, ok := it.Object.(*draftEntry); ok {
			out = append(out, e.session)
		}
	}
	return out
}

// closeAll closes every session. Used on shutdown. Items skips entries
// that expired since the last janitor run, so those are evicted first.
func (s *sessionStore) closeAll() {
	s.cache.DeleteExpired()
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
