package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/court-reservation/internal/config"
	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/repository"
	"github.com/iliyamo/court-reservation/internal/utils"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.Username == u.Username {
			return repository.ErrUsernameTaken
		}
		if o.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByLogin(_ context.Context, ident string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == ident || u.Email == repository.NormalizeEmail(ident) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) set(u model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

type fakeTokens struct {
	mu     sync.Mutex
	active map[string]string
	exp    map[string]time.Time
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{active: map[string]string{}, exp: map[string]time.Time{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[hash] = userID
	f.exp[hash] = exp
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.active[hash]
	if !ok || !f.exp[hash].After(now) {
		return "", repository.ErrTokenInvalid
	}
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, uid := range f.active {
		if uid == userID {
			delete(f.active, h)
		}
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

var authCfg = config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}

func authServer(users *fakeUsers, tokens *fakeTokens, now time.Time) *echo.Echo {
	h := NewAuthHandler(authCfg, users, tokens, utils.FixedClock{At: now})
	e := echo.New()
	g := e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	return e
}

func decodeAuth(t *testing.T, body []byte) authResp {
	t.Helper()
	var r authResp
	require.NoError(t, json.Unmarshal(body, &r))
	return r
}

func TestRegisterThenLoginByEmailOrUsername(t *testing.T) {
	users, tokens := newFakeUsers(), newFakeTokens()
	e := authServer(users, tokens, time.Now())

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"username":"ana","email":" Ana@Example.com ","password":"secreto"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decodeAuth(t, rec.Body.Bytes())
	assert.Equal(t, "ana@example.com", reg.User.Email)
	assert.Equal(t, model.RoleUser, reg.User.Role)
	assert.Equal(t, model.AccountEnabled, reg.User.Status)
	assert.NotContains(t, rec.Body.String(), "secreto")

	id, err := utils.ParseAccessToken(authCfg.JWTSecret, reg.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.UserID)

	for _, body := range []string{
		`{"email":"ana@example.com","password":"secreto"}`,
		`{"username":"ana","password":"secreto"}`,
		`{"login":"ana","password":"secreto"}`,
	} {
		assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/auth/login", body).Code, body)
	}
	assert.Equal(t, http.StatusUnauthorized,
		do(e, http.MethodPost, "/v1/auth/login", `{"login":"ana","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(e, http.MethodPost, "/v1/auth/login", `{"login":"nobody","password":"secreto"}`).Code)
}

func TestRegisterConflicts(t *testing.T) {
	e := authServer(newFakeUsers(), newFakeTokens(), time.Now())
	require.Equal(t, http.StatusCreated,
		do(e, http.MethodPost, "/v1/auth/register", `{"username":"ana","email":"a@x.com","password":"p"}`).Code)

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"username":"ana","email":"b@x.com","password":"p"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")

	rec = do(e, http.MethodPost, "/v1/auth/register", `{"username":"bea","email":"A@x.com","password":"p"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	assert.Equal(t, http.StatusBadRequest,
		do(e, http.MethodPost, "/v1/auth/register", `{"username":"","email":"c@x.com","password":"p"}`).Code)
}

func TestLoginRefusesBlockedAccounts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, utils.GMT3)
	users := newFakeUsers()
	hash, err := utils.HashPassword("pw", 4)
	require.NoError(t, err)
	until := now.Add(48 * time.Hour)
	users.set(model.User{ID: "u1", Username: "off", Email: "off@x.com", PasswordHash: hash, Role: model.RoleUser, Status: model.AccountDisabled})
	users.set(model.User{ID: "u2", Username: "sus", Email: "sus@x.com", PasswordHash: hash, Role: model.RoleUser, Status: model.AccountSuspended, SuspendedUntil: &until})
	e := authServer(users, newFakeTokens(), now)

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/v1/auth/login", `{"login":"off","password":"pw"}`).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/v1/auth/login", `{"login":"sus","password":"pw"}`).Code)

	later := authServer(users, newFakeTokens(), until.Add(time.Minute))
	assert.Equal(t, http.StatusOK, do(later, http.MethodPost, "/v1/auth/login", `{"login":"sus","password":"pw"}`).Code)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	users, tokens := newFakeUsers(), newFakeTokens()
	e := authServer(users, tokens, time.Now())

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"username":"ana","email":"a@x.com","password":"p"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decodeAuth(t, rec.Body.Bytes())

	rec = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeAuth(t, rec.Body.Bytes())
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)
	assert.Equal(t, 1, tokens.count())

	assert.Equal(t, http.StatusUnauthorized,
		do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`).Code)

	assert.Equal(t, http.StatusNoContent,
		do(e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+second.Refresh.Token+`"}`).Code)
	assert.Equal(t, 0, tokens.count())
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/logout", `{}`).Code)
}
