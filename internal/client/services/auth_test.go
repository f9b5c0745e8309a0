package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/officehub/internal/client/client"
	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/client/session"
	"github.com/dmitrijs2005/officehub/internal/client/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fake storage ----

type fakeStorage struct {
	data map[string]string

	LoadErr     error
	SaveErr     error
	SaveUserErr error
	ClearErr    error

	// ClearNeedsLiveCtx makes Clear fail with the context's error when it
	// is already done.
	ClearNeedsLiveCtx bool
	SavedAt           time.Time

	ClearCalls int
}

func newFakeStorage(kv map[string]string) *fakeStorage {
	if kv == nil {
		kv = map[string]string{}
	}
	return &fakeStorage{data: kv}
}

func (f *fakeStorage) Load(context.Context) (session.Persisted, error) {
	if f.LoadErr != nil {
		return session.Persisted{}, f.LoadErr
	}
	return session.Persisted{Token: f.data[session.TokenKey], User: f.data[session.UserKey], SavedAt: f.SavedAt}, nil
}

func (f *fakeStorage) Save(_ context.Context, token, user string) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.data[session.TokenKey] = token
	f.data[session.UserKey] = user
	return nil
}

func (f *fakeStorage) SaveUser(_ context.Context, user string) error {
	if f.SaveUserErr != nil {
		return f.SaveUserErr
	}
	f.data[session.UserKey] = user
	return nil
}

func (f *fakeStorage) Clear(ctx context.Context) error {
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	if f.ClearNeedsLiveCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	delete(f.data, session.TokenKey)
	delete(f.data, session.UserKey)
	return nil
}

// ---- fake auth API ----

type fakeAuthAPI struct {
	LoginRet    *models.AuthResult
	LoginErr    error
	RegisterRet *models.AuthResult
	RegisterErr error
	LogoutErr   error
	MeRet       *models.Identity
	MeErr       error
	UpdateRet   *models.Identity
	UpdateErr   error

	LastLoginEmail    string
	LastLoginPassword string
	LastRegister      models.RegisterRequest
	LastLogoutToken   string
	LastUpdateToken   string
	LastUpdateFields  models.ProfileUpdate
	LogoutCalls       int
}

func (f *fakeAuthAPI) Login(_ context.Context, email, password string) (*models.AuthResult, error) {
	f.LastLoginEmail, f.LastLoginPassword = email, password
	return f.LoginRet, f.LoginErr
}

func (f *fakeAuthAPI) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	f.LastRegister = req
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeAuthAPI) Logout(_ context.Context, token string) error {
	f.LogoutCalls++
	f.LastLogoutToken = token
	return f.LogoutErr
}

func (f *fakeAuthAPI) Me(context.Context, string) (*models.Identity, error) {
	return f.MeRet, f.MeErr
}

func (f *fakeAuthAPI) UpdateMe(_ context.Context, token string, fields models.ProfileUpdate) (*models.Identity, error) {
	f.LastUpdateToken, f.LastUpdateFields = token, fields
	return f.UpdateRet, f.UpdateErr
}

// ---- helpers ----

var jane = models.Identity{MongoID: "u1", Name: "Jane Doe", Email: "jane@example.com", Role: models.RoleIntern, InternID: "EMP26-0001"}

func userJSON(t *testing.T, id models.Identity) string {
	t.Helper()
	b, err := json.Marshal(id)
	require.NoError(t, err)
	return string(b)
}

func loggedIn(t *testing.T, api *fakeAuthAPI, st *fakeStorage) AuthService {
	t.Helper()
	st.data[session.TokenKey] = "tok"
	st.data[session.UserKey] = userJSON(t, jane)
	svc := NewAuthService(api, st, nil)
	require.True(t, svc.Restore(context.Background()))
	return svc
}

// ---- Restore ----

func TestRestore_ValidSession(t *testing.T) {
	st := newFakeStorage(map[string]string{session.TokenKey: "tok", session.UserKey: userJSON(t, jane)})
	svc := NewAuthService(&fakeAuthAPI{}, st, nil)

	require.True(t, svc.Restore(context.Background()))
	assert.True(t, svc.IsAuthenticated())
	assert.Equal(t, "tok", svc.Token())
	id, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, jane, id)
	assert.Zero(t, st.ClearCalls)
}

func TestRestore_InvalidStateIsClearedSilently(t *testing.T) {
	tests := []struct {
		name string
		kv   map[string]string
	}{
		{name: "empty storage", kv: map[string]string{}},
		{name: "token without user", kv: map[string]string{session.TokenKey: "t"}},
		{name: "user without token", kv: map[string]string{session.UserKey: `{"name":"x"}`}},
		{name: "literal undefined", kv: map[string]string{session.TokenKey: "t", session.UserKey: "undefined"}},
		{name: "broken json", kv: map[string]string{session.TokenKey: "t", session.UserKey: `{"name":`}},
		{name: "json null", kv: map[string]string{session.TokenKey: "t", session.UserKey: "null"}},
		{name: "json string", kv: map[string]string{session.TokenKey: "t", session.UserKey: `"jane"`}},
		{name: "json array", kv: map[string]string{session.TokenKey: "t", session.UserKey: `[1,2]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStorage(tt.kv)
			svc := NewAuthService(&fakeAuthAPI{}, st, nil)

			assert.False(t, svc.Restore(context.Background()))
			assert.False(t, svc.IsAuthenticated())
			_, ok := svc.Current()
			assert.False(t, ok)
			assert.Equal(t, 1, st.ClearCalls)
			assert.Empty(t, st.data)
		})
	}
}

func TestRestore_StorageErrorsDegradeToLoggedOut(t *testing.T) {
	st := newFakeStorage(nil)
	st.LoadErr = errors.New("disk gone")
	st.ClearErr = errors.New("still gone")
	svc := NewAuthService(&fakeAuthAPI{}, st, nil)

	assert.False(t, svc.Restore(context.Background()))
	assert.False(t, svc.IsAuthenticated())
}

// ---- Login / Register ----

func TestLogin_PersistsThenExposesSession(t *testing.T) {
	api := &fakeAuthAPI{LoginRet: &models.AuthResult{Token: "new-tok", Identity: jane}}
	st := newFakeStorage(nil)
	svc := NewAuthService(api, st, nil)

	id, err := svc.Login(context.Background(), "  jane@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, jane, *id)
	assert.Equal(t, "jane@example.com", api.LastLoginEmail)
	assert.Equal(t, "secret", api.LastLoginPassword)

	assert.Equal(t, map[string]string{
		session.TokenKey: "new-tok",
		session.UserKey:  userJSON(t, jane),
	}, st.data)
	assert.Equal(t, "new-tok", svc.Token())
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)
	svc := loggedIn(t, api, st)

	api.LoginErr = &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	_, err := svc.Login(context.Background(), "jane@example.com", "bad")

	var se *SessionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid credentials", se.Message)
	assert.Equal(t, "login", se.Op)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	assert.Equal(t, "tok", svc.Token())
	assert.Equal(t, "tok", st.data[session.TokenKey])
}

func TestLogin_FallbackMessage(t *testing.T) {
	api := &fakeAuthAPI{LoginErr: client.ErrUnavailable}
	svc := NewAuthService(api, newFakeStorage(nil), nil)

	_, err := svc.Login(context.Background(), "a@b.c", "pw")
	require.EqualError(t, err, "Login failed")
	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestLogin_StorageFailureLeavesLoggedOut(t *testing.T) {
	api := &fakeAuthAPI{LoginRet: &models.AuthResult{Token: "t", Identity: jane}}
	st := newFakeStorage(nil)
	st.SaveErr = errors.New("readonly fs")
	svc := NewAuthService(api, st, nil)

	_, err := svc.Login(context.Background(), "jane@example.com", "pw")
	require.EqualError(t, err, "Login failed")
	assert.False(t, svc.IsAuthenticated())
}

func TestRegister_SameContractAsLogin(t *testing.T) {
	bob := models.Identity{Name: "Bob", Email: "bob@example.com", Role: models.RoleEmployee}
	api := &fakeAuthAPI{RegisterRet: &models.AuthResult{Token: "reg-tok", Identity: bob}}
	st := newFakeStorage(nil)
	svc := NewAuthService(api, st, nil)

	id, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Bob", Email: " bob@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, bob, *id)
	assert.Equal(t, "bob@example.com", api.LastRegister.Email)
	assert.Equal(t, "reg-tok", st.data[session.TokenKey])

	api.RegisterErr = &client.APIError{Status: http.StatusBadRequest}
	_, err = svc.Register(context.Background(), models.RegisterRequest{Email: "x@y.z"})
	require.EqualError(t, err, "Registration failed")
	assert.Equal(t, "reg-tok", svc.Token())
}

// ---- Logout ----

func TestLogout_ClearsRegardlessOfServer(t *testing.T) {
	for _, serverErr := range []error{nil, client.ErrUnavailable, &client.APIError{Status: 500, Message: "boom"}} {
		api := &fakeAuthAPI{LogoutErr: serverErr}
		st := newFakeStorage(nil)
		svc := loggedIn(t, api, st)

		require.NoError(t, svc.Logout(context.Background()))
		assert.Equal(t, 1, api.LogoutCalls)
		assert.Equal(t, "tok", api.LastLogoutToken)
		assert.Empty(t, st.data)
		assert.False(t, svc.IsAuthenticated())
		_, ok := svc.Current()
		assert.False(t, ok)
	}
}

func TestLogout_WhenLoggedOutSkipsServer(t *testing.T) {
	api := &fakeAuthAPI{}
	svc := NewAuthService(api, newFakeStorage(nil), nil)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Zero(t, api.LogoutCalls)
}

func TestLogout_StorageFailureStillLogsOutInMemory(t *testing.T) {
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)
	svc := loggedIn(t, api, st)
	st.ClearErr = errors.New("locked")

	err := svc.Logout(context.Background())
	var se *SessionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "logout", se.Op)
	assert.False(t, svc.IsAuthenticated())
}

func TestLogout_CancelledContextStillClearsStorage(t *testing.T) {
	api := &fakeAuthAPI{LogoutErr: context.Canceled}
	st := newFakeStorage(nil)
	st.ClearNeedsLiveCtx = true
	svc := loggedIn(t, api, st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 2, st.ClearCalls)
	assert.Empty(t, st.data)

	again := NewAuthService(api, st, nil)
	assert.False(t, again.Restore(context.Background()))
}

func TestSavedAt_FollowsSession(t *testing.T) {
	saved := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)
	st.SavedAt = saved
	svc := loggedIn(t, api, st)

	at, ok := svc.SavedAt()
	require.True(t, ok)
	assert.Equal(t, saved, at)

	updated := jane
	updated.Position = "Lead"
	api.UpdateRet = &updated
	_, err := svc.UpdateProfile(context.Background(), models.ProfileUpdate{Position: "Lead"})
	require.NoError(t, err)
	at, _ = svc.SavedAt()
	assert.Equal(t, saved, at)

	loginAt := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return loginAt }
	api.LoginRet = &models.AuthResult{Token: "tok-2", Identity: jane}
	_, err = svc.Login(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)
	at, ok = svc.SavedAt()
	require.True(t, ok)
	assert.Equal(t, loginAt, at)

	require.NoError(t, svc.Logout(context.Background()))
	_, ok = svc.SavedAt()
	assert.False(t, ok)
}

// ---- UpdateProfile / Refresh ----

func TestUpdateProfile_ReplacesIdentityOnly(t *testing.T) {
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)
	svc := loggedIn(t, api, st)

	updated := jane
	updated.Phone = "+1 555 0100"
	api.UpdateRet = &updated

	id, err := svc.UpdateProfile(context.Background(), models.ProfileUpdate{Phone: "+1 555 0100"})
	require.NoError(t, err)
	assert.Equal(t, "+1 555 0100", id.Phone)
	assert.Equal(t, "tok", api.LastUpdateToken)
	assert.Equal(t, "tok", st.data[session.TokenKey])
	assert.Equal(t, userJSON(t, updated), st.data[session.UserKey])

	cur, _ := svc.Current()
	assert.Equal(t, updated, cur)
}

func TestUpdateProfile_Failures(t *testing.T) {
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)

	out := NewAuthService(api, st, nil)
	_, err := out.UpdateProfile(context.Background(), models.ProfileUpdate{Name: "x"})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	svc := loggedIn(t, api, st)
	_, err = svc.UpdateProfile(context.Background(), models.ProfileUpdate{})
	require.ErrorIs(t, err, ErrNothingToUpdate)

	api.UpdateErr = errors.New("network")
	_, err = svc.UpdateProfile(context.Background(), models.ProfileUpdate{Name: "x"})
	require.EqualError(t, err, "Update failed")

	api.UpdateErr = &client.APIError{Status: 400, Message: "Email already in use"}
	_, err = svc.UpdateProfile(context.Background(), models.ProfileUpdate{Email: "taken@example.com"})
	require.EqualError(t, err, "Email already in use")

	cur, _ := svc.Current()
	assert.Equal(t, jane, cur)
	assert.Equal(t, userJSON(t, jane), st.data[session.UserKey])
}

func TestRefresh_UpdatesIdentity(t *testing.T) {
	api := &fakeAuthAPI{}
	st := newFakeStorage(nil)
	svc := loggedIn(t, api, st)

	fresh := jane
	fresh.Department = "Engineering"
	api.MeRet = &fresh

	id, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Engineering", id.Department)
	assert.Equal(t, userJSON(t, fresh), st.data[session.UserKey])
}

func TestRefresh_UnauthorizedEndsSession(t *testing.T) {
	api := &fakeAuthAPI{MeErr: &client.APIError{Status: http.StatusUnauthorized}}
	st := newFakeStorage(nil)
	svc := loggedIn(t, api, st)

	_, err := svc.Refresh(context.Background())
	require.EqualError(t, err, "Session expired. Please log in again.")
	assert.False(t, svc.IsAuthenticated())
	assert.Empty(t, st.data)
}

// ---- with real SQLite storage ----

func TestAuthService_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db, err := storage.InitDatabase(ctx, storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	api := &fakeAuthAPI{LoginRet: &models.AuthResult{Token: "persisted", Identity: jane}}
	first := NewAuthService(api, session.NewSQLiteStorage(db), nil)
	_, err = first.Login(ctx, "jane@example.com", "secret")
	require.NoError(t, err)

	second := NewAuthService(api, session.NewSQLiteStorage(db), nil)
	require.True(t, second.Restore(ctx))
	assert.Equal(t, "persisted", second.Token())

	require.NoError(t, second.Logout(ctx))

	third := NewAuthService(api, session.NewSQLiteStorage(db), nil)
	assert.False(t, third.Restore(ctx))
}
