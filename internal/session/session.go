// Package session owns the authenticated identity. It is the only writer of
// the persisted credential token and of the current user record; every other
// component reads identity through it and reacts to its change notifications.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campushub/internal/api"
	"campushub/internal/store"
	"campushub/internal/types"
)

// State of the session store.
type State int

const (
	StateUnauthenticated State = iota
	StateInitializing
	StateAuthenticated
)

// Local precondition failures, rejected before any network call.
var (
	ErrNameRequired     = errors.New("a nickname is required")
	ErrEmailRequired    = errors.New("an email address is required")
	ErrPasswordTooShort = errors.New("the password must be at least 6 characters")
)

// User-facing messages for the error taxonomy.
const (
	msgNetwork           = "cannot reach the server; check your network connection"
	msgServerError       = "a server error occurred; please try again later"
	msgAlreadyRegistered = "this email address is already registered"
	msgLoginFailed       = "login failed; check your email and password"
	msgRegisterFailed    = "registration failed; please try again"
)

// Listener is notified when the identity changes. user is nil after logout.
type Listener func(user *types.User)

// Credentials caches the persisted token and implements api.TokenSource.
type Credentials struct {
	mu    sync.RWMutex
	token string
	local *store.Store
}

// NewCredentials loads the persisted token, if any.
func NewCredentials(local *store.Store) (*Credentials, error) {
	token, err := local.LoadToken()
	if err != nil {
		return nil, err
	}
	return &Credentials{token: token, local: local}, nil
}

// Token implements api.TokenSource.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set persists and caches a new token.
func (c *Credentials) Set(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.SaveToken(token); err != nil {
		return err
	}
	c.token = token
	return nil
}

// Clear drops the cached and persisted token.
func (c *Credentials) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	return c.local.ClearToken()
}

// Store is the session state machine:
// Unauthenticated -> Initializing -> Authenticated, back to Unauthenticated
// on logout or an invalid token.
type Store struct {
	client *api.Client
	creds  *Credentials
	logger *slog.Logger

	mu        sync.RWMutex
	state     State
	user      *types.User
	listeners []Listener
}

// New creates a session store. The client must use creds as its token source.
func New(client *api.Client, creds *Credentials, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		creds:  creds,
		logger: logger,
		state:  StateUnauthenticated,
	}
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated identity, or nil.
func (s *Store) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// OnChange registers fn to run whenever the identity changes.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) setUser(user *types.User, state State) {
	s.mu.Lock()
	s.user = user
	s.state = state
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

// Initialize restores the session from the persisted token. Runs once at
// application start; afterwards the auth state is definite. A token that
// fails the identity fetch is discarded.
func (s *Store) Initialize(ctx context.Context) {
	token := s.creds.Token()
	if token == "" {
		s.setUser(nil, StateUnauthenticated)
		return
	}

	if tokenExpired(token) {
		s.logger.Info("stored token expired, discarding")
		if err := s.creds.Clear(); err != nil {
			s.logger.Warn("failed to clear token", "error", err)
		}
		s.setUser(nil, StateUnauthenticated)
		return
	}

	s.mu.Lock()
	s.state = StateInitializing
	s.mu.Unlock()

	user, err := s.client.Me(ctx)
	if err != nil {
		s.logger.Warn("identity fetch failed, discarding token", "error", err)
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Warn("failed to clear token", "error", clearErr)
		}
		s.setUser(nil, StateUnauthenticated)
		return
	}

	s.setUser(user, StateAuthenticated)
}

// Login exchanges credentials for a token, persists it and fetches the
// identity. Failures always surface as a human-readable error.
func (s *Store) Login(ctx context.Context, email, password string) error {
	tok, err := s.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return humanize(err, msgLoginFailed)
	}

	if err := s.creds.Set(tok.AccessToken); err != nil {
		return err
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		return humanize(err, msgLoginFailed)
	}

	s.setUser(user, StateAuthenticated)
	return nil
}

// Register validates the profile locally, then creates the account.
// It does not log the new account in.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	if strings.TrimSpace(req.Nickname) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(req.Email) == "" {
		return ErrEmailRequired
	}
	if len(req.Password) < 6 {
		return ErrPasswordTooShort
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Email = strings.TrimSpace(req.Email)

	if _, err := s.client.Register(ctx, req); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == 409 {
			return errors.New(msgAlreadyRegistered)
		}
		return humanize(err, msgRegisterFailed)
	}
	return nil
}

// Logout clears the identity and persisted token synchronously; no network call.
func (s *Store) Logout() {
	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("failed to clear token on logout", "error", err)
	}
	s.setUser(nil, StateUnauthenticated)
}

// UpdateProfile applies profile changes and refreshes the stored identity.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	user, err := s.client.UpdateMe(ctx, update)
	if err != nil {
		return humanize(err, msgServerError)
	}
	s.setUser(user, StateAuthenticated)
	return nil
}

// ChangePassword swaps the account password.
func (s *Store) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}
	if err := s.client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return humanize(err, msgServerError)
	}
	return nil
}

// humanize maps an API or transport error to a user-facing message.
// Application errors keep the backend's detail; 422 details arrive already
// flattened to "field: message; field: message" by the api package.
func humanize(err error, fallback string) error {
	var transport *api.TransportError
	if errors.As(err, &transport) {
		if transport.Status >= 500 {
			return errors.New(msgServerError)
		}
		return errors.New(msgNetwork)
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr
	}

	return errors.New(fallback)
}

// tokenExpired reports whether the stored token carries an exp claim in the
// past. The claim is read without signature verification; an opaque or
// claimless token is left for the server to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
