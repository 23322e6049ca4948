// Package session is the client-side session lifecycle for the
// Hustlefy shell: the persisted credential, the auto-logout timer and
// the auth state the route guards read. It replaces the ambient
// context the web build uses with an injected service consumers
// subscribe to.
package session

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/hustlefy/hustlefy_be/internal/models"
)

// State is the auth snapshot guards and screens consume.
// IsAuthenticated implies User != nil.
type State struct {
	IsAuthenticated bool
	User            *models.User
	IsAuthLoading   bool
}

// Service owns the session. All mutation goes through Restore, Login,
// Logout, UpdateUser, ReplaceUser and RotateToken; at most one
// auto-logout timer is pending at any time.
type Service struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu          sync.Mutex
	state       State
	logoutTimer Timer
	subscribers []func(State)
}

type Option func(*Service)

// WithClock swaps the wall clock, used by tests.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(store Store, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: SystemClock(),
		ttl:   ttl,
		// loading until Restore has run, so guards hold their redirects
		state: State{IsAuthLoading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked after every state change.
func (s *Service) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Token reads the persisted bearer token, "" when logged out.
func (s *Service) Token() string {
	tok, err := s.store.Get(KeyToken)
	if err != nil {
		return ""
	}
	return tok
}

// Restore rebuilds the session from persisted storage at app start.
// Anything missing, unparsable or expired clears the credential and
// lands in the logged-out state; it never returns an error to the
// caller. Always finishes with IsAuthLoading=false.
func (s *Service) Restore() {
	s.mu.Lock()

	token, _ := s.store.Get(KeyToken)
	expiryStr, _ := s.store.Get(KeyTokenExpiry)
	userStr, _ := s.store.Get(KeyUser)

	if token == "" || expiryStr == "" || userStr == "" {
		s.clearLocked()
		s.setStateLocked(State{})
		return
	}

	expiryMs, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil || !s.clock.Now().Before(time.UnixMilli(expiryMs)) {
		s.clearLocked()
		s.setStateLocked(State{})
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(userStr), &user); err != nil {
		// corrupt user record reads as no session
		s.clearLocked()
		s.setStateLocked(State{})
		return
	}

	s.scheduleLocked(time.UnixMilli(expiryMs))
	s.setStateLocked(State{IsAuthenticated: true, User: &user})
}

// Login persists the credential with a fresh expiry and arms the
// auto-logout timer.
func (s *Service) Login(user *models.User, token string) {
	s.mu.Lock()

	expiry := s.clock.Now().Add(s.ttl)
	s.persistLocked(user, token, expiry)
	if !s.scheduleLocked(expiry) {
		// TTL already elapsed, logout fires synchronously
		s.setStateLocked(State{})
		return
	}
	s.setStateLocked(State{IsAuthenticated: true, User: user})
}

// Logout cancels any pending timer, clears the persisted credential
// and resets the state. Safe to call repeatedly.
func (s *Service) Logout() {
	s.mu.Lock()
	s.clearLocked()
	s.setStateLocked(State{})
}

// UserPatch is a partial profile edit applied locally. Nil fields are
// left alone.
type UserPatch struct {
	Name           *string
	Phone          *string
	Location       *string
	WorkCategories *[]string
	Bio            *string
}

// UpdateUser merges a patch into the in-memory user and re-persists
// the serialized record. The token and its expiry are untouched.
func (s *Service) UpdateUser(patch UserPatch) {
	s.mu.Lock()

	if s.state.User == nil {
		s.mu.Unlock()
		return
	}

	u := *s.state.User
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Location != nil {
		u.Location = *patch.Location
	}
	if patch.WorkCategories != nil {
		u.WorkCategories = datatypes.JSONSlice[string](*patch.WorkCategories)
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}

	s.persistUserLocked(&u)
	st := s.state
	st.User = &u
	s.setStateLocked(st)
}

// ReplaceUser swaps in the server's authoritative user record, e.g.
// after a profile update response.
func (s *Service) ReplaceUser(user *models.User) {
	s.mu.Lock()

	if !s.state.IsAuthenticated {
		s.mu.Unlock()
		return
	}
	s.persistUserLocked(user)
	st := s.state
	st.User = user
	s.setStateLocked(st)
}

// RotateToken replaces the persisted token with a freshly issued one
// and restarts the expiry window.
func (s *Service) RotateToken(token string) {
	s.mu.Lock()

	if !s.state.IsAuthenticated {
		s.mu.Unlock()
		return
	}
	expiry := s.clock.Now().Add(s.ttl)
	if err := s.store.Set(KeyToken, token); err != nil {
		log.Println("session: persisting token:", err)
	}
	if err := s.store.Set(KeyTokenExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		log.Println("session: persisting token expiry:", err)
	}
	if !s.scheduleLocked(expiry) {
		s.setStateLocked(State{})
		return
	}
	s.mu.Unlock()
}

// --- internals, all called with s.mu held ---

func (s *Service) persistLocked(user *models.User, token string, expiry time.Time) {
	if err := s.store.Set(KeyToken, token); err != nil {
		log.Println("session: persisting token:", err)
	}
	if err := s.store.Set(KeyTokenExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		log.Println("session: persisting token expiry:", err)
	}
	s.persistUserLocked(user)
}

func (s *Service) persistUserLocked(user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		log.Println("session: serializing user:", err)
		return
	}
	if err := s.store.Set(KeyUser, string(raw)); err != nil {
		log.Println("session: persisting user:", err)
	}
}

func (s *Service) clearLocked() {
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}
	_ = s.store.Delete(KeyToken)
	_ = s.store.Delete(KeyTokenExpiry)
	_ = s.store.Delete(KeyUser)
}

// scheduleLocked arms the single auto-logout timer, replacing any
// pending one. Returns false after clearing the credential when the
// delay has already elapsed.
func (s *Service) scheduleLocked(expiry time.Time) bool {
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}

	delay := expiry.Sub(s.clock.Now())
	if delay <= 0 {
		s.clearLocked()
		return false
	}

	s.logoutTimer = s.clock.AfterFunc(delay, s.Logout)
	return true
}

// setStateLocked stores the new state (loading finished) and releases
// the lock before notifying subscribers.
func (s *Service) setStateLocked(st State) {
	st.IsAuthLoading = false
	s.state = st
	subs := make([]func(State), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
