package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *Service, *memStore, func()) {
	srv := httptest.NewServer(handler)
	store := newMemStore()
	sess := NewService(store, testTTL, WithClock(newFakeClock()))
	sess.Restore()
	c := NewClient(srv.URL, sess)
	return c, sess, store, srv.Close
}

func TestLoginWithCredentialsSuccess(t *testing.T) {
	c, sess, store, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "asha@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "Login successful",
			"data": map[string]interface{}{
				"user":  map[string]interface{}{"name": "Asha", "email": "asha@example.com", "role": "seeker"},
				"token": "tok-cred",
			},
		})
	})
	defer done()

	if err := c.LoginWithCredentials(context.Background(), "asha@example.com", "secret1"); err != nil {
		t.Fatalf("LoginWithCredentials: %v", err)
	}

	st := sess.State()
	if !st.IsAuthenticated || st.User.Name != "Asha" {
		t.Errorf("session state = %+v", st)
	}
	if tok, _ := store.Get(KeyToken); tok != "tok-cred" {
		t.Errorf("persisted token = %q, want tok-cred", tok)
	}
}

func TestLoginWithCredentialsServerMessage(t *testing.T) {
	c, sess, _, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Incorrect email or password",
		})
	})
	defer done()

	err := c.LoginWithCredentials(context.Background(), "asha@example.com", "wrong")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if ae.Message != "Incorrect email or password" {
		t.Errorf("message = %q, want the server's", ae.Message)
	}
	if sess.State().IsAuthenticated {
		t.Error("failed login must not authenticate the session")
	}
}

func TestLoginWithCredentialsFallbackMessage(t *testing.T) {
	c, _, _, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	})
	defer done()

	err := c.LoginWithCredentials(context.Background(), "a@b.c", "x")
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != "Login failed" {
		t.Errorf("err = %v, want the Login failed fallback", err)
	}
}

func TestLoginNetworkError(t *testing.T) {
	store := newMemStore()
	sess := NewService(store, testTTL, WithClock(newFakeClock()))
	sess.Restore()
	c := NewClient("http://127.0.0.1:1", sess) // nothing listens here

	err := c.LoginWithCredentials(context.Background(), "a@b.c", "x")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if ae.Message != "Network error. Please check your connection." {
		t.Errorf("message = %q, want the network error message", ae.Message)
	}
	if ae.Err == nil {
		t.Error("network AuthError should wrap the transport error")
	}
}

func TestLoginWithGoogleTopLevelEnvelope(t *testing.T) {
	c, sess, _, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/google" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"user":      map[string]interface{}{"name": "Ravi", "email": "ravi@example.com", "role": "seeker"},
			"token":     "tok-google",
			"isNewUser": true,
			"message":   "Account created",
		})
	})
	defer done()

	res, err := c.LoginWithGoogle(context.Background(), "google-credential")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if !res.IsNewUser {
		t.Error("isNewUser flag lost")
	}
	if st := sess.State(); !st.IsAuthenticated || st.User.Email != "ravi@example.com" {
		t.Errorf("session state = %+v", st)
	}
}

func TestLoginWithGoogleFailure(t *testing.T) {
	c, _, _, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	})
	defer done()

	_, err := c.LoginWithGoogle(context.Background(), "bad")
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != "Google sign-in failed" {
		t.Errorf("err = %v, want the Google fallback", err)
	}
}

func TestRegisterUserSignsIn(t *testing.T) {
	c, sess, _, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "Account created",
			"data": map[string]interface{}{
				"user":  map[string]interface{}{"name": "Asha", "email": "asha@example.com", "role": "seeker"},
				"token": "tok-new",
			},
		})
	})
	defer done()

	err := c.RegisterUser(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret1", Role: "seeker",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if !sess.State().IsAuthenticated {
		t.Error("registration should sign straight in")
	}
}

func TestUpdateProfileRotatesToken(t *testing.T) {
	var gotAuth string
	c, sess, store, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"user":  map[string]interface{}{"name": "Asha", "email": "asha@example.com", "role": "seeker"},
					"token": "tok-old",
				},
			})
		case "/profile":
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"message": "Profile updated",
				"data":    map[string]interface{}{"name": "Asha K", "email": "asha@example.com", "role": "seeker"},
				"token":   "tok-rotated",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	defer done()

	if err := c.LoginWithCredentials(context.Background(), "asha@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	name := "Asha K"
	if err := c.UpdateProfile(context.Background(), ProfileUpdateRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if gotAuth != "Bearer tok-old" {
		t.Errorf("Authorization = %q, want the pre-rotation token", gotAuth)
	}
	if tok, _ := store.Get(KeyToken); tok != "tok-rotated" {
		t.Errorf("persisted token = %q, want tok-rotated", tok)
	}
	if got := sess.State().User.Name; got != "Asha K" {
		t.Errorf("user name = %q, want the server's copy", got)
	}
}

func TestUpdateProfileFailureLeavesSession(t *testing.T) {
	c, sess, store, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"user":  map[string]interface{}{"name": "Asha", "email": "asha@example.com", "role": "seeker"},
					"token": "tok-old",
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Phone number looks invalid",
		})
	})
	defer done()

	if err := c.LoginWithCredentials(context.Background(), "asha@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	bad := "12"
	err := c.UpdateProfile(context.Background(), ProfileUpdateRequest{Phone: &bad})
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != "Phone number looks invalid" {
		t.Errorf("err = %v, want the server's message", err)
	}
	if tok, _ := store.Get(KeyToken); tok != "tok-old" {
		t.Error("failed update must not rotate the token")
	}
	if got := sess.State().User.Name; got != "Asha" {
		t.Error("failed update must not replace the user")
	}
}
