// Package session maps browser sessions to their page controllers.
package session

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mhpenta/pixelart/internal/app"
)

const (
	// CookieName holds the session id.
	CookieName = "pixelart_session"

	DefaultCapacity = 1024
	DefaultTTL      = time.Hour
)

// Factory creates the controller for a new session.
type Factory func(id string) *app.Controller

// Store keeps one controller per session. Sessions idle for longer than the
// TTL, or pushed out by newer ones beyond capacity, are forgotten.
type Store struct {
	factory Factory
	ttl     time.Duration
	secure  bool
	logger  *slog.Logger

	mu    sync.Mutex
	cache *expirable.LRU[string, *app.Controller]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for session lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(s *Store) {
		s.secure = secure
	}
}

// NewStore creates a Store. Non-positive capacity or ttl fall back to the defaults.
func NewStore(capacity int, ttl time.Duration, factory Factory, opts ...Option) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Store{
		factory: factory,
		ttl:     ttl,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cache = expirable.NewLRU[string, *app.Controller](capacity, func(id string, _ *app.Controller) {
		s.logger.Debug("session evicted", "session_id", id)
	}, ttl)

	return s
}

// Get returns the controller for id, if the session is still known.
func (s *Store) Get(id string) (*app.Controller, bool) {
	if id == "" {
		return nil, false
	}
	return s.cache.Get(id)
}

// GetOrCreate returns the controller for id, creating a new session when id
// is empty or unknown. The returned id is the one the caller should keep.
func (s *Store) GetOrCreate(id string) (string, *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.Get(id); ok {
		// Re-adding refreshes the expiry of an active session.
		s.cache.Add(id, c)
		return id, c
	}

	id = uuid.NewString()
	c := s.factory(id)
	s.cache.Add(id, c)
	s.logger.Debug("session created", "session_id", id)
	return id, c
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}

// FromRequest resolves the session of r, creating one if needed, and sets the
// session cookie on w.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) *app.Controller {
	var id string
	if cookie, err := r.Cookie(CookieName); err == nil {
		id = cookie.Value
	}

	id, c := s.GetOrCreate(id)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return c
}

// Lookup resolves the session of r without creating one.
func (s *Store) Lookup(r *http.Request) (*app.Controller, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return s.Get(cookie.Value)
}
