package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"backtest-catalog/internal/pagination"
	"backtest-catalog/pkg/cache"
	"backtest-catalog/pkg/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Session is the pagination state of one browser. Requests of the same
// session are serialized by Acquire.
type Session struct {
	ID    string
	State pagination.State

	mu sync.Mutex
	// holders counts requests between Acquire and Release, guarded by
	// SessionStore.mu
	holders int
}

// SessionStore keeps sessions in memory, keyed by the id held in a cookie.
// Idle sessions expire after ttl.
type SessionStore struct {
	cache      cache.Cache
	cookieName string
	ttl        time.Duration

	// guards get-or-create and inUse
	mu sync.Mutex
	// inUse pins held sessions so that expiry in the cache cannot split one
	// id into two sessions
	inUse map[string]*Session
}

func NewSessionStore(c cache.Cache, cookieName string, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, cookieName: cookieName, ttl: ttl, inUse: map[string]*Session{}}
}

// Acquire returns the locked session of the request, creating it and
// setting the cookie when the request carries none. Release must be called
// once the interaction is complete.
func (s *SessionStore) Acquire(c echo.Context) *Session {
	sess := s.getOrCreate(c)
	sess.mu.Lock()
	return sess
}

// Release stores the session state and unlocks it. The ttl restarts.
func (s *SessionStore) Release(sess *Session) {
	s.mu.Lock()
	s.cache.Set(cacheKey(sess.ID), sess, s.ttl)
	sess.holders--
	if sess.holders <= 0 {
		delete(s.inUse, sess.ID)
	}
	s.mu.Unlock()

	sess.mu.Unlock()
}

func (s *SessionStore) getOrCreate(c echo.Context) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cookie, err := c.Cookie(s.cookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return s.hold(s.lookup(cookie.Value))
		}
	}

	sess := s.hold(&Session{ID: uuid.NewString(), State: pagination.NewState(false)})
	c.SetCookie(&http.Cookie{
		Name:     s.cookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// lookup returns the held, cached or a fresh session for id.
func (s *SessionStore) lookup(id string) *Session {
	if sess, ok := s.inUse[id]; ok {
		return sess
	}
	if sess, ok := cache.Get[*Session](s.cache, cacheKey(id)); ok {
		return sess
	}
	return &Session{ID: id, State: pagination.NewState(false)}
}

func (s *SessionStore) hold(sess *Session) *Session {
	sess.holders++
	s.inUse[sess.ID] = sess
	s.cache.Set(cacheKey(sess.ID), sess, s.ttl)
	return sess
}

func cacheKey(id string) string {
	return fmt.Sprintf(common.KEY_CATALOG_SESSION, id)
}
