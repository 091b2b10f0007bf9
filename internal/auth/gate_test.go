package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/testkit"
)

func request(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestCurrentUser(t *testing.T) {
	env := testkit.NewApp(t)
	gate := auth.NewGate(env.App)

	token := env.Login(t, "u-ana")
	id := gate.CurrentUser(request(token))
	require.NotNil(t, id)
	assert.Equal(t, "u-ana", id.UserID)
	assert.Equal(t, db.RoleModel, id.Role)
	assert.True(t, id.IsModel())

	assert.Nil(t, gate.RequireAdmin(request(token)))
	assert.Nil(t, gate.CurrentUser(request("")))
	assert.Nil(t, gate.CurrentUser(request("garbage")))

	admin := gate.RequireAdmin(request(env.Login(t, "u-admin")))
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin())
}

func TestCurrentUserRevokedSession(t *testing.T) {
	env := testkit.NewApp(t)
	gate := auth.NewGate(env.App)

	token := env.Login(t, "u-ana")
	id := gate.CurrentUser(request(token))
	require.NotNil(t, id)

	require.NoError(t, repository.NewUserRepository(env.App.DB).RevokeSession(context.Background(), id.SessionID, env.App.Now()))
	assert.Nil(t, gate.CurrentUser(request(token)))
}

func TestCurrentUserExpiredSession(t *testing.T) {
	env := testkit.NewApp(t)
	token := env.Login(t, "u-ana")

	env.App.Now = func() time.Time { return db.Now().Add(48 * time.Hour) }
	assert.Nil(t, auth.NewGate(env.App).CurrentUser(request(token)))
}

func TestSignerRejectsForeignSecret(t *testing.T) {
	user := &db.User{ID: "u1", Role: db.RoleAdmin}
	now := time.Now()

	token, err := auth.NewSigner("other", time.Hour).Issue(user, "s1", now)
	require.NoError(t, err)
	_, err = auth.NewSigner("mine", time.Hour).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.NewSigner("mine", time.Hour).Issue(user, "s1", now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = auth.NewSigner("mine", time.Hour).Parse(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	claims, err := auth.NewSigner("mine", time.Hour).Parse(mustIssue(t, "mine", user))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, db.RoleAdmin, claims.Role)
}

func mustIssue(t *testing.T, secret string, user *db.User) string {
	t.Helper()
	token, err := auth.NewSigner(secret, time.Hour).Issue(user, "s1", time.Now())
	require.NoError(t, err)
	return token
}

func TestMiddlewareStoresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := testkit.NewApp(t)
	gate := auth.NewGate(env.App)

	r := gin.New()
	r.Use(gate.Middleware())
	r.GET("/", func(c *gin.Context) {
		id := auth.FromContext(c)
		if id == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.UserID)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, request(env.Login(t, "u-bea")))
	assert.Equal(t, "u-bea", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, request(""))
	assert.Equal(t, "anonymous", rec.Body.String())
}
