// Package session owns the client's belief about who is authenticated. It
// is the only writer of the bearer token and the session fields; every
// other component reads through Snapshot or the token source.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
	"github.com/samuelorobosa/jci-conf-client/internal/state"
	"github.com/samuelorobosa/jci-conf-client/internal/upstream"
)

type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

// Snapshot is the published, immutable view of the session.
// IsAuthenticated is derived from the user and can never diverge from it.
type Snapshot struct {
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// TokenSource holds the bearer token. The upstream client reads it per
// request; only the session store writes it.
type TokenSource struct {
	mu    sync.RWMutex
	token string
}

func NewTokenSource() *TokenSource {
	return &TokenSource{}
}

func (t *TokenSource) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *TokenSource) set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

// API is the slice of the upstream client the session store depends on.
type API interface {
	Login(ctx context.Context, email, password string) (upstream.LoginResult, error)
	Register(ctx context.Context, email, password, name string, role model.Role) (upstream.LoginResult, error)
	CurrentUser(ctx context.Context) (model.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (string, error)
	AddAdmin(ctx context.Context, email, password string, role model.Role) (upstream.LoginResult, error)
	RemoveAdmin(ctx context.Context, adminID string) error
	Admins(ctx context.Context) ([]model.User, error)
}

type Store struct {
	api    API
	state  *state.Store
	tokens *TokenSource
	log    *logrus.Logger

	mu          sync.Mutex
	status      Status
	user        *model.User
	loading     int
	subscribers []func(Snapshot)

	checkGroup singleflight.Group
}

// NewStore builds the session store and rehydrates the persisted snapshot.
// The restored belief is provisional until CheckAuth re-validates it.
func NewStore(api API, stateStore *state.Store, tokens *TokenSource, log *logrus.Logger) *Store {
	s := &Store{
		api:    api,
		state:  stateStore,
		tokens: tokens,
		log:    log,
	}
	record, ok, err := stateStore.Load()
	if err != nil {
		log.WithError(err).Warn("could not load persisted session, starting anonymous")
		return s
	}
	if ok && record.IsAuthenticated && record.User != nil && record.Token != "" {
		tokens.set(record.Token)
		s.status = StatusAuthenticated
		s.user = record.User
	}
	return s
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:            s.user,
		IsAuthenticated: s.status == StatusAuthenticated && s.user != nil,
		IsLoading:       s.loading > 0,
	}
}

// Subscribe registers fn to run after every session change. fn must not
// block; it is called outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	subscribers := make([]func(Snapshot), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (s *Store) Token() string {
	return s.tokens.Get()
}

func (s *Store) beginAuth() {
	s.mu.Lock()
	s.status = StatusAuthenticating
	s.loading++
	s.mu.Unlock()
	s.notify()
}

func (s *Store) beginOp() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	s.notify()
}

func (s *Store) endOp() {
	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) becomeAuthenticated(user model.User, token string) {
	s.tokens.set(token)
	s.mu.Lock()
	s.status = StatusAuthenticated
	s.user = &user
	s.mu.Unlock()
	if err := s.state.Save(state.Record{User: &user, IsAuthenticated: true, Token: token}); err != nil {
		s.log.WithError(err).Warn("could not persist session")
	}
	s.notify()
}

func (s *Store) becomeAnonymous() {
	s.tokens.set("")
	s.mu.Lock()
	s.status = StatusAnonymous
	s.user = nil
	s.mu.Unlock()
	if err := s.state.Clear(); err != nil {
		s.log.WithError(err).Warn("could not clear persisted session")
	}
	s.notify()
}

// CheckAuth re-validates the persisted token against the identity endpoint.
// Without a token it is a no-op. Concurrent calls share one in-flight
// validation and observe its result.
func (s *Store) CheckAuth(ctx context.Context) error {
	token := s.tokens.Get()
	if token == "" {
		return nil
	}

	// Only the executing call touches session state. Joiners wait on the
	// shared result; a joiner that pre-set Authenticating could otherwise
	// overwrite a transition the executor already made.
	_, err, _ := s.checkGroup.Do("checkAuth", func() (any, error) {
		s.beginAuth()
		defer s.endOp()

		if expired(token) {
			return nil, fault.Unauthorized("token_expired", "persisted token has expired")
		}
		user, err := s.api.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		s.becomeAuthenticated(user, s.tokens.Get())
		return nil, nil
	})
	if err != nil {
		s.log.WithError(err).Info("auth check failed, discarding token")
		s.becomeAnonymous()
		return err
	}
	return nil
}

// expired reports whether the token carries an exp claim in the past. The
// signature is not verified here; the backend remains the authority. This
// only skips a doomed network round trip.
func expired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque tokens are passed through to the backend.
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now().UTC())
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return fault.Validation("missing_credentials", "email and password are required")
	}

	s.beginAuth()
	defer s.endOp()

	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.becomeAnonymous()
		return loginFault(err)
	}
	s.becomeAuthenticated(result.User, result.Token)
	return nil
}

func (s *Store) Register(ctx context.Context, email, password, name string, role model.Role) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" || strings.TrimSpace(name) == "" {
		return fault.Validation("missing_fields", "email, password and name are required")
	}
	if role != "" && !model.ValidRole(role) {
		return fault.Validation("invalid_role", "role must be SUPER_ADMIN or ADMIN")
	}

	s.beginAuth()
	defer s.endOp()

	result, err := s.api.Register(ctx, email, password, name, role)
	if err != nil {
		s.becomeAnonymous()
		return loginFault(err)
	}
	s.becomeAuthenticated(result.User, result.Token)
	return nil
}

// loginFault normalizes backend rejections to invalid_credentials while
// keeping transport faults intact.
func loginFault(err error) error {
	if fault.KindOf(err) == fault.KindUnauthorized {
		return fault.Unauthorized("invalid_credentials", "invalid email or password")
	}
	return err
}

// Logout resets the session unconditionally. The remote invalidation is
// best effort: its failure is logged, never returned.
func (s *Store) Logout(ctx context.Context) {
	if s.tokens.Get() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.log.WithError(err).Warn("remote logout failed, clearing local session anyway")
		}
	}
	s.becomeAnonymous()
}

// Refresh rotates the bearer token in place without touching the user.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	authenticated := s.status == StatusAuthenticated
	user := s.user
	s.mu.Unlock()
	if !authenticated || user == nil {
		return fault.Unauthorized("not_authenticated", "no session to refresh")
	}

	token, err := s.api.Refresh(ctx)
	if err != nil {
		return err
	}
	s.tokens.set(token)
	if err := s.state.Save(state.Record{User: user, IsAuthenticated: true, Token: token}); err != nil {
		s.log.WithError(err).Warn("could not persist refreshed session")
	}
	return nil
}

// requireSuperAdmin is the local role guard for admin management. It is a
// UX optimization only; the backend re-enforces the same rule.
func (s *Store) requireSuperAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAuthenticated || s.user == nil || s.user.Role != model.RoleSuperAdmin {
		return fault.Unauthorized("super_admin_only", "only super admins may manage admins")
	}
	return nil
}

// AddAdmin creates a new admin account. The created account's token is NOT
// adopted: the current session stays in place.
func (s *Store) AddAdmin(ctx context.Context, email, password string, role model.Role) (model.User, error) {
	if err := s.requireSuperAdmin(); err != nil {
		return model.User{}, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return model.User{}, fault.Validation("missing_fields", "email and password are required")
	}
	if !model.ValidRole(role) {
		return model.User{}, fault.Validation("invalid_role", "role must be SUPER_ADMIN or ADMIN")
	}

	s.beginOp()
	defer s.endOp()

	result, err := s.api.AddAdmin(ctx, email, password, role)
	if err != nil {
		return model.User{}, err
	}
	return result.User, nil
}

func (s *Store) RemoveAdmin(ctx context.Context, adminID string) error {
	if err := s.requireSuperAdmin(); err != nil {
		return err
	}
	if strings.TrimSpace(adminID) == "" {
		return fault.Validation("missing_admin_id", "admin id is required")
	}

	s.beginOp()
	defer s.endOp()

	return s.api.RemoveAdmin(ctx, adminID)
}

// Admins lists admin accounts. Fetch failures are returned, not folded
// into an empty list, so callers can tell "no admins" from "fetch failed".
func (s *Store) Admins(ctx context.Context) ([]model.User, error) {
	admins, err := s.api.Admins(ctx)
	if err != nil {
		return nil, err
	}
	if admins == nil {
		admins = []model.User{}
	}
	return admins, nil
}
