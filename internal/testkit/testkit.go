// Package testkit wires in-memory collaborators (SQLite, miniredis, a temp
// upload dir) for package tests.
package testkit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/cache"
	"github.com/oggyb/model-agency/internal/config"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/filestore"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/server"
)

// NewDB opens an isolated in-memory SQLite database with the schema applied.
// A single connection serializes access, which SQLite needs for concurrent writers.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        db.Now,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewSeededDB is NewDB plus db.SeedMinimalTestData.
//
// Dataset:
//   - u-admin (ADMIN), u-vic (VISITOR)
//   - u-ana (MODEL) owns p-ana: APPROVED, photos ph-ana-1 (APPROVED, profile
//     photo), ph-ana-2 (PENDING), ph-ana-3 (REJECTED)
//   - u-bea (MODEL) owns p-bea: PENDING, photo ph-bea-1 (APPROVED)
func NewSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	database := NewDB(t)
	require.NoError(t, db.SeedMinimalTestData(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T, cfg *config.Config) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { rc.Close() })
	return rc, mr
}

// Config returns defaults pointed at a temp upload dir.
func Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DB.Driver = "sqlite"
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.ThumbSize = 32
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env bundles a fully wired AppContext with handles tests poke at directly.
type Env struct {
	App   *app.AppContext
	Redis *miniredis.Miniredis
}

// NewApp wires a seeded SQLite DB, miniredis and a temp file store.
func NewApp(t *testing.T) *Env {
	t.Helper()
	cfg := Config(t)
	database := NewSeededDB(t)
	rc, mr := NewRedis(t, cfg)
	files, err := filestore.NewLocal(cfg)
	require.NoError(t, err)

	return &Env{
		App:   app.New(cfg, database, rc, files, Discard()),
		Redis: mr,
	}
}

// Login opens a session for userID and returns a bearer token the gate accepts.
func (e *Env) Login(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()
	users := repository.NewUserRepository(e.App.DB)
	user, err := users.FindByID(ctx, userID)
	require.NoError(t, err)

	signer := auth.NewSigner(e.App.Config.Auth.JWTSecret, e.App.Config.Auth.TokenTTL)
	now := e.App.Now()
	session := &db.Session{ID: uuid.NewString(), UserID: user.ID, ExpiresAt: now.Add(signer.TTL())}
	token, err := signer.Issue(user, session.ID, now)
	require.NoError(t, err)
	session.TokenHash = auth.HashToken(token)
	require.NoError(t, users.CreateSession(ctx, session))
	return token
}

// Identity returns the caller an authenticated request by userID resolves to.
func (e *Env) Identity(t *testing.T, userID string) *auth.Identity {
	t.Helper()
	user, err := repository.NewUserRepository(e.App.DB).FindByID(context.Background(), userID)
	require.NoError(t, err)
	return &auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
}

// Router builds the production router around registrars, in gin test mode.
func (e *Env) Router(registrars ...server.Registrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return server.NewRouter(e.App, auth.NewGate(e.App), registrars...)
}

// Do performs a request against h. A non-nil body that is not an io.Reader
// is sent as JSON.
func Do(h http.Handler, method, path string, body any, token string, contentType string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
		if contentType == "" {
			contentType = "application/json"
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals a JSON response body into dst.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
