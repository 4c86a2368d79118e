package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campushub/internal/api"
	"campushub/internal/types"
	"campushub/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "campushub.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSession(t *testing.T, local *store.Store, handler http.Handler) (*Store, *Credentials) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds, err := NewCredentials(local)
	if err != nil {
		t.Fatalf("NewCredentials() error = %v", err)
	}
	client := api.New(srv.URL, creds, nil)
	return New(client, creds, nil), creds
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": expiresAt.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestInitializeWithoutToken(t *testing.T) {
	var calls atomic.Int32
	sess, _ := newSession(t, newTestStore(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	sess.Initialize(context.Background())

	if sess.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want Unauthenticated", sess.State())
	}
	if calls.Load() != 0 {
		t.Errorf("identity endpoint called %d times without a token", calls.Load())
	}
}

func TestInitializeValidToken(t *testing.T) {
	local := newTestStore(t)
	if err := local.SaveToken(signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	sess, _ := newSession(t, local, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 7, "email": "a@example.com", "nickname": "aki"}`))
	}))

	sess.Initialize(context.Background())

	if sess.State() != StateAuthenticated {
		t.Fatalf("State() = %v, want Authenticated", sess.State())
	}
	if sess.User() == nil || sess.User().ID != 7 {
		t.Errorf("User() = %+v, want id 7", sess.User())
	}
}

func TestInitializeRejectedTokenIsDiscarded(t *testing.T) {
	local := newTestStore(t)
	if err := local.SaveToken(signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	sess, creds := newSession(t, local, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Could not validate credentials"}`))
	}))

	sess.Initialize(context.Background())

	if sess.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want Unauthenticated", sess.State())
	}
	if creds.Token() != "" {
		t.Error("token survived a rejected identity fetch")
	}
	if tok, _ := local.LoadToken(); tok != "" {
		t.Error("persisted token survived a rejected identity fetch")
	}
}

func TestInitializeExpiredTokenSkipsNetwork(t *testing.T) {
	local := newTestStore(t)
	if err := local.SaveToken(signedToken(t, time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	var calls atomic.Int32
	sess, creds := newSession(t, local, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	sess.Initialize(context.Background())

	if calls.Load() != 0 {
		t.Errorf("identity endpoint called %d times for an expired token", calls.Load())
	}
	if creds.Token() != "" {
		t.Error("expired token not discarded")
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want Unauthenticated", sess.State())
	}
}

func TestLoginStoresTokenAndIdentity(t *testing.T) {
	local := newTestStore(t)
	sess, creds := newSession(t, local, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write([]byte(`{"access_token": "tok-login", "token_type": "bearer", "expires_in": 3600}`))
		case "/auth/me":
			w.Write([]byte(`{"id": 3, "email": "b@example.com", "nickname": "ben"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	var gotUser atomic.Value
	sess.OnChange(func(u *types.User) {
		if u != nil {
			gotUser.Store(u.ID)
		}
	})

	if err := sess.Login(context.Background(), " b@example.com ", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if creds.Token() != "tok-login" {
		t.Errorf("Token() = %q, want tok-login", creds.Token())
	}
	if tok, _ := local.LoadToken(); tok != "tok-login" {
		t.Errorf("persisted token = %q, want tok-login", tok)
	}
	if sess.User() == nil || sess.User().ID != 3 {
		t.Errorf("User() = %+v, want id 3", sess.User())
	}
	if got, _ := gotUser.Load().(int64); got != 3 {
		t.Errorf("listener saw user id %d, want 3", got)
	}
}

func TestLoginErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		network bool
		want    string
	}{
		{
			name:   "detail string passes through",
			status: http.StatusUnauthorized,
			body:   `{"detail": "Incorrect email or password"}`,
			want:   "Incorrect email or password",
		},
		{
			name:   "validation list is joined",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail": [{"loc": ["body", "username"], "msg": "value is not a valid email address"}]}`,
			want:   "body.username: value is not a valid email address",
		},
		{
			name:    "network failure has a distinct message",
			network: true,
			want:    msgNetwork,
		},
		{
			name:   "server error has a generic message",
			status: http.StatusBadGateway,
			want:   msgServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newTestStore(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			if tt.network {
				srv.Close()
			} else {
				defer srv.Close()
			}

			creds, err := NewCredentials(local)
			if err != nil {
				t.Fatalf("NewCredentials() error = %v", err)
			}
			sess := New(api.New(srv.URL, creds, nil), creds, nil)

			err = sess.Login(context.Background(), "a@example.com", "bad")
			if err == nil {
				t.Fatal("Login() succeeded, want error")
			}
			if err.Error() != tt.want {
				t.Errorf("Login() error = %q, want %q", err.Error(), tt.want)
			}
			if sess.State() != StateUnauthenticated {
				t.Errorf("State() = %v after failed login, want Unauthenticated", sess.State())
			}
		})
	}
}

func TestRegisterLocalValidation(t *testing.T) {
	tests := []struct {
		name string
		req  api.RegisterRequest
		want error
	}{
		{name: "missing nickname", req: api.RegisterRequest{Email: "a@example.com", Password: "secret1"}, want: ErrNameRequired},
		{name: "missing email", req: api.RegisterRequest{Nickname: "aki", Password: "secret1"}, want: ErrEmailRequired},
		{name: "short password", req: api.RegisterRequest{Nickname: "aki", Email: "a@example.com", Password: "abc"}, want: ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			sess, _ := newSession(t, newTestStore(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))

			err := sess.Register(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
			if calls.Load() != 0 {
				t.Errorf("network called %d times for a local validation failure", calls.Load())
			}
		})
	}
}

func TestRegisterConflictMessage(t *testing.T) {
	sess, _ := newSession(t, newTestStore(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "Email already registered"}`))
	}))

	err := sess.Register(context.Background(), api.RegisterRequest{
		Nickname: "aki", Email: "a@example.com", Password: "secret1",
	})
	if err == nil || err.Error() != msgAlreadyRegistered {
		t.Errorf("Register() error = %v, want %q", err, msgAlreadyRegistered)
	}
}

func TestLogoutIsSynchronousAndLocal(t *testing.T) {
	local := newTestStore(t)
	if err := local.SaveToken(signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	var calls atomic.Int32
	sess, creds := newSession(t, local, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id": 7, "email": "a@example.com", "nickname": "aki"}`))
	}))
	sess.Initialize(context.Background())
	initCalls := calls.Load()

	var sawNil atomic.Bool
	sess.OnChange(func(u *types.User) {
		if u == nil {
			sawNil.Store(true)
		}
	})

	sess.Logout()

	if calls.Load() != initCalls {
		t.Error("Logout() made a network call")
	}
	if creds.Token() != "" || sess.User() != nil {
		t.Error("Logout() left identity or token behind")
	}
	if sess.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want Unauthenticated", sess.State())
	}
	if !sawNil.Load() {
		t.Error("listener not notified of logout")
	}
}
