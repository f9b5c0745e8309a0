// Package services contains the application services of the hub client:
// the session store (AuthService) and the password-reset wizard
// (PasswordReset).
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/officehub/internal/client/client"
	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/client/session"
	"github.com/dmitrijs2005/officehub/internal/logging"
)

// undefinedUser is what a client that serialized a missing identity left in
// storage. It is treated as corrupted data.
const undefinedUser = "undefined"

// clearTimeout bounds the retry of a session delete whose context was
// cancelled.
const clearTimeout = 5 * time.Second

// now is a test seam for time.Now.
var now = time.Now

// AuthService is the single source of truth for "who is logged in".
//
// Contract:
//   - Restore: load the persisted session at startup; corrupted or partial
//     data is wiped and yields a logged-out state. Never fails.
//   - Login / Register: authenticate, persist token and identity, then
//     expose them. On failure the previous session is left untouched.
//   - Logout: notify the server (best effort) and always clear the session.
//   - UpdateProfile / Refresh: replace the identity, keeping the token.
//
// Every mutating operation writes storage before memory, so a restart right
// after a successful call observes the new session. Failures are returned
// as *SessionError.
type AuthService interface {
	Restore(ctx context.Context) bool
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.Identity, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, fields models.ProfileUpdate) (*models.Identity, error)
	Refresh(ctx context.Context) (*models.Identity, error)

	Current() (models.Identity, bool)
	Token() string
	IsAuthenticated() bool
	// SavedAt reports when the current session was persisted.
	SavedAt() (time.Time, bool)
}

type authService struct {
	client  client.AuthAPI
	storage session.Storage
	logger  logging.Logger

	// writeMu serializes mutating operations so storage and memory are
	// updated in the same order.
	writeMu sync.Mutex

	mu       sync.RWMutex
	token    string
	identity *models.Identity
	savedAt  time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and
// session storage.
func NewAuthService(api client.AuthAPI, storage session.Storage, logger logging.Logger) AuthService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &authService{client: api, storage: storage, logger: logger.With("component", "session")}
}

func (a *authService) Restore(ctx context.Context) bool {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	p, err := a.storage.Load(ctx)
	if err != nil {
		a.logger.Warn(ctx, "cannot read persisted session", "error", err)
		a.discard(ctx)
		return false
	}

	identity, ok := decodeIdentity(p)
	if !ok {
		if p.Token != "" || p.User != "" {
			a.logger.Warn(ctx, "persisted session is incomplete or corrupted, clearing it")
		}
		a.discard(ctx)
		return false
	}

	a.set(p.Token, identity)
	a.setSavedAt(p.SavedAt)
	a.logger.Info(ctx, "session restored", "email", identity.Email)
	return true
}

// decodeIdentity validates a persisted pair. Both parts must be present and
// the user must decode to a JSON object.
func decodeIdentity(p session.Persisted) (*models.Identity, bool) {
	if p.Token == "" || p.User == "" || strings.TrimSpace(p.User) == undefinedUser {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(p.User), &raw); err != nil || raw == nil {
		return nil, false
	}
	var identity models.Identity
	if err := json.Unmarshal([]byte(p.User), &identity); err != nil {
		return nil, false
	}
	return &identity, true
}

// discard clears storage and memory. Storage failures are only logged: the
// in-memory session is gone either way.
func (a *authService) discard(ctx context.Context) {
	if err := a.clearStorage(ctx); err != nil {
		a.logger.Error(ctx, "cannot clear persisted session", "error", err)
	}
	a.set("", nil)
}

// clearStorage removes the persisted session. A session that outlived a
// logout would come back on the next Restore, so when ctx is already done the
// delete is retried once without its cancellation.
func (a *authService) clearStorage(ctx context.Context) error {
	err := a.storage.Clear(ctx)
	if err == nil || ctx.Err() == nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTimeout)
	defer cancel()
	return a.storage.Clear(cctx)
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	res, err := a.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		a.logger.Warn(ctx, "login failed", "error", err)
		return nil, sessionError("login", "Login failed", err)
	}
	if err := a.establish(ctx, res); err != nil {
		return nil, &SessionError{Op: "login", Message: "Login failed", Err: err}
	}
	a.logger.Info(ctx, "logged in", "email", res.Identity.Email)
	return cloneIdentity(&res.Identity), nil
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.Identity, error) {
	req.Email = strings.TrimSpace(req.Email)
	res, err := a.client.Register(ctx, req)
	if err != nil {
		a.logger.Warn(ctx, "registration failed", "error", err)
		return nil, sessionError("register", "Registration failed", err)
	}
	if err := a.establish(ctx, res); err != nil {
		return nil, &SessionError{Op: "register", Message: "Registration failed", Err: err}
	}
	a.logger.Info(ctx, "registered", "email", res.Identity.Email)
	return cloneIdentity(&res.Identity), nil
}

// establish persists a fresh session and then makes it current.
func (a *authService) establish(ctx context.Context, res *models.AuthResult) error {
	user, err := json.Marshal(res.Identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if err := a.storage.Save(ctx, res.Token, string(user)); err != nil {
		a.logger.Error(ctx, "cannot persist session", "error", err)
		return err
	}
	a.set(res.Token, cloneIdentity(&res.Identity))
	a.setSavedAt(now())
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	token := a.Token()
	if token != "" {
		if err := a.client.Logout(ctx, token); err != nil {
			a.logger.Debug(ctx, "server logout failed, clearing local session anyway", "error", err)
		}
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	err := a.clearStorage(ctx)
	a.set("", nil)
	if err != nil {
		a.logger.Error(ctx, "cannot clear persisted session", "error", err)
		return &SessionError{Op: "logout", Message: "Logged out, but the saved session could not be removed", Err: err}
	}
	a.logger.Info(ctx, "logged out")
	return nil
}

func (a *authService) UpdateProfile(ctx context.Context, fields models.ProfileUpdate) (*models.Identity, error) {
	token := a.Token()
	if token == "" {
		return nil, &SessionError{Op: "update", Message: "Update failed", Err: ErrNotAuthenticated}
	}
	if fields.IsEmpty() {
		return nil, &SessionError{Op: "update", Message: "Nothing to update", Err: ErrNothingToUpdate}
	}

	identity, err := a.client.UpdateMe(ctx, token, fields)
	if err != nil {
		a.logger.Warn(ctx, "profile update failed", "error", err)
		return nil, sessionError("update", "Update failed", err)
	}
	if err := a.replaceIdentity(ctx, token, identity); err != nil {
		return nil, &SessionError{Op: "update", Message: "Update failed", Err: err}
	}
	a.logger.Info(ctx, "profile updated")
	return cloneIdentity(identity), nil
}

// Refresh reloads the identity from the server. A rejected token ends the
// session.
func (a *authService) Refresh(ctx context.Context) (*models.Identity, error) {
	token := a.Token()
	if token == "" {
		return nil, &SessionError{Op: "refresh", Message: "Not logged in", Err: ErrNotAuthenticated}
	}

	identity, err := a.client.Me(ctx, token)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.writeMu.Lock()
			a.discard(ctx)
			a.writeMu.Unlock()
			return nil, &SessionError{Op: "refresh", Message: "Session expired. Please log in again.", Err: err}
		}
		return nil, sessionError("refresh", "Failed to load profile", err)
	}
	if err := a.replaceIdentity(ctx, token, identity); err != nil {
		return nil, &SessionError{Op: "refresh", Message: "Failed to load profile", Err: err}
	}
	return cloneIdentity(identity), nil
}

// replaceIdentity swaps the identity of the session that owns token. A
// session that changed in the meantime (logout, new login) is left alone.
func (a *authService) replaceIdentity(ctx context.Context, token string, identity *models.Identity) error {
	user, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if a.Token() != token {
		return ErrNotAuthenticated
	}
	if err := a.storage.SaveUser(ctx, string(user)); err != nil {
		a.logger.Error(ctx, "cannot persist identity", "error", err)
		return err
	}
	a.set(token, cloneIdentity(identity))
	return nil
}

func (a *authService) set(token string, identity *models.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token != a.token {
		a.savedAt = time.Time{}
	}
	a.token = token
	a.identity = identity
}

func (a *authService) setSavedAt(t time.Time) {
	a.mu.Lock()
	a.savedAt = t
	a.mu.Unlock()
}

func (a *authService) Current() (models.Identity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.identity == nil {
		return models.Identity{}, false
	}
	return *a.identity, true
}

func (a *authService) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *authService) IsAuthenticated() bool {
	return a.Token() != ""
}

func (a *authService) SavedAt() (time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" || a.savedAt.IsZero() {
		return time.Time{}, false
	}
	return a.savedAt, true
}

func cloneIdentity(i *models.Identity) *models.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
