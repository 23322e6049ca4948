package session

import (
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hustlefy/hustlefy_be/internal/models"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: map[string]string{}}
}

func (s *memStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// fakeClock drives timers manually.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	when  time.Time
	fn    func()
	dead  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.dead {
		return false
	}
	t.dead = true
	return true
}

// Advance moves the clock and fires due timers outside the lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.dead && !t.when.After(c.now) {
			t.dead = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.dead {
			n++
		}
	}
	return n
}

func testUser() *models.User {
	return &models.User{
		Name:  "Asha",
		Email: "asha@example.com",
		Role:  models.RoleSeeker,
	}
}

const testTTL = time.Hour

func newTestService() (*Service, *memStore, *fakeClock) {
	store := newMemStore()
	clock := newFakeClock()
	return NewService(store, testTTL, WithClock(clock)), store, clock
}

func TestNewServiceStartsLoading(t *testing.T) {
	svc, _, _ := newTestService()
	if st := svc.State(); !st.IsAuthLoading {
		t.Error("fresh service should be in the loading state")
	}
}

func TestRestoreWithEmptyStore(t *testing.T) {
	svc, _, _ := newTestService()
	svc.Restore()

	st := svc.State()
	if st.IsAuthenticated || st.User != nil {
		t.Error("empty store should restore to logged out")
	}
	if st.IsAuthLoading {
		t.Error("restore must finish with IsAuthLoading=false")
	}
}

func TestRestoreValidSession(t *testing.T) {
	svc, store, clock := newTestService()

	raw, _ := json.Marshal(testUser())
	store.Set(KeyToken, "tok-123")
	store.Set(KeyTokenExpiry, strconv.FormatInt(clock.Now().Add(30*time.Minute).UnixMilli(), 10))
	store.Set(KeyUser, string(raw))

	svc.Restore()

	st := svc.State()
	if !st.IsAuthenticated || st.User == nil || st.User.Name != "Asha" {
		t.Fatalf("restore did not rebuild the session: %+v", st)
	}
	if clock.pending() != 1 {
		t.Errorf("pending timers = %d, want 1", clock.pending())
	}

	// session dies exactly when the stored expiry elapses
	clock.Advance(30 * time.Minute)
	if svc.State().IsAuthenticated {
		t.Error("session should have expired")
	}
	if tok, _ := store.Get(KeyToken); tok != "" {
		t.Error("expired session left a token behind")
	}
}

func TestRestoreExpiredSession(t *testing.T) {
	svc, store, clock := newTestService()

	raw, _ := json.Marshal(testUser())
	store.Set(KeyToken, "tok-123")
	store.Set(KeyTokenExpiry, strconv.FormatInt(clock.Now().Add(-time.Minute).UnixMilli(), 10))
	store.Set(KeyUser, string(raw))

	svc.Restore()

	st := svc.State()
	if st.IsAuthenticated {
		t.Error("expired credential should restore to logged out")
	}
	if tok, _ := store.Get(KeyToken); tok != "" {
		t.Error("expired credential was not cleared")
	}
	if clock.pending() != 0 {
		t.Errorf("pending timers = %d, want 0", clock.pending())
	}
}

func TestRestoreCorruptUser(t *testing.T) {
	svc, store, clock := newTestService()

	store.Set(KeyToken, "tok-123")
	store.Set(KeyTokenExpiry, strconv.FormatInt(clock.Now().Add(30*time.Minute).UnixMilli(), 10))
	store.Set(KeyUser, "{not json")

	svc.Restore()

	if svc.State().IsAuthenticated {
		t.Error("corrupt user record should read as no session")
	}
	if u, _ := store.Get(KeyUser); u != "" {
		t.Error("corrupt credential was not cleared")
	}
}

func TestRestoreUnparsableExpiry(t *testing.T) {
	svc, store, _ := newTestService()

	raw, _ := json.Marshal(testUser())
	store.Set(KeyToken, "tok-123")
	store.Set(KeyTokenExpiry, "not-a-number")
	store.Set(KeyUser, string(raw))

	svc.Restore()

	if svc.State().IsAuthenticated {
		t.Error("unparsable expiry should read as no session")
	}
}

func TestLoginSchedulesSingleTimer(t *testing.T) {
	svc, store, clock := newTestService()

	svc.Login(testUser(), "tok-1")

	st := svc.State()
	if !st.IsAuthenticated || st.User.Name != "Asha" {
		t.Fatalf("login state = %+v", st)
	}
	if clock.pending() != 1 {
		t.Errorf("pending timers after login = %d, want 1", clock.pending())
	}
	if tok, _ := store.Get(KeyToken); tok != "tok-1" {
		t.Errorf("persisted token = %q, want tok-1", tok)
	}

	// a second login replaces, never stacks, the timer
	svc.Login(testUser(), "tok-2")
	if clock.pending() != 1 {
		t.Errorf("pending timers after relogin = %d, want 1", clock.pending())
	}

	clock.Advance(testTTL)
	if svc.State().IsAuthenticated {
		t.Error("session should auto-logout after TTL")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, store, clock := newTestService()

	svc.Login(testUser(), "tok-1")
	svc.Logout()
	svc.Logout() // second call is a no-op on cleared state

	st := svc.State()
	if st.IsAuthenticated || st.User != nil {
		t.Error("logout did not clear the state")
	}
	if clock.pending() != 0 {
		t.Errorf("pending timers after logout = %d, want 0", clock.pending())
	}
	if tok, _ := store.Get(KeyToken); tok != "" {
		t.Error("logout left a persisted token")
	}
}

func TestUpdateUserPersistsWithoutTouchingToken(t *testing.T) {
	svc, store, _ := newTestService()

	svc.Login(testUser(), "tok-1")
	expiryBefore, _ := store.Get(KeyTokenExpiry)

	bio := "Reliable and quick"
	svc.UpdateUser(UserPatch{Bio: &bio})

	if got := svc.State().User.Bio; got != bio {
		t.Errorf("in-memory bio = %q, want %q", got, bio)
	}

	raw, _ := store.Get(KeyUser)
	var persisted models.User
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted user unparsable: %v", err)
	}
	if persisted.Bio != bio {
		t.Errorf("persisted bio = %q, want %q", persisted.Bio, bio)
	}

	if tok, _ := store.Get(KeyToken); tok != "tok-1" {
		t.Error("UpdateUser must not touch the token")
	}
	if expiryAfter, _ := store.Get(KeyTokenExpiry); expiryAfter != expiryBefore {
		t.Error("UpdateUser must not touch the token expiry")
	}
}

func TestRotateTokenRestartsWindow(t *testing.T) {
	svc, store, clock := newTestService()

	svc.Login(testUser(), "tok-1")
	clock.Advance(30 * time.Minute)
	svc.RotateToken("tok-2")

	if tok, _ := store.Get(KeyToken); tok != "tok-2" {
		t.Errorf("persisted token = %q, want tok-2", tok)
	}

	// the original expiry would hit in 30m; rotation pushed it out
	clock.Advance(30 * time.Minute)
	if !svc.State().IsAuthenticated {
		t.Fatal("rotated session expired on the old schedule")
	}
	clock.Advance(30 * time.Minute)
	if svc.State().IsAuthenticated {
		t.Error("rotated session should expire a full TTL after rotation")
	}
}

func TestSubscribeSeesChanges(t *testing.T) {
	svc, _, _ := newTestService()

	var got []State
	svc.Subscribe(func(st State) { got = append(got, st) })

	svc.Login(testUser(), "tok-1")
	svc.Logout()

	if len(got) != 2 {
		t.Fatalf("subscriber saw %d updates, want 2", len(got))
	}
	if !got[0].IsAuthenticated || got[1].IsAuthenticated {
		t.Errorf("subscriber updates out of order: %+v", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/session.json"
	store := NewFileStore(path)

	if err := store.Set(KeyToken, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := store.Get(KeyToken); got != "tok-1" {
		t.Errorf("Get = %q, want tok-1", got)
	}

	// a second handle over the same file sees the data
	if got, _ := NewFileStore(path).Get(KeyToken); got != "tok-1" {
		t.Error("persisted value not visible through a new handle")
	}

	if err := store.Delete(KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Get(KeyToken); got != "" {
		t.Errorf("Get after delete = %q, want empty", got)
	}
}
