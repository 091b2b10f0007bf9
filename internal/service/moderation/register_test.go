package moderation_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/testkit"
)

func setupRoutes(t *testing.T) (*testkit.Env, http.Handler) {
	t.Helper()
	env := testkit.NewApp(t)
	engine := moderation.NewEngine(env.App)
	return env, env.Router(moderation.NewRegistrar(env.App, engine))
}

func TestApproveRoute(t *testing.T) {
	env, h := setupRoutes(t)
	admin := env.Login(t, "u-admin")

	rec := testkit.Do(h, http.MethodPost, "/api/approve/p-bea", map[string]string{"type": "profile"}, admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p db.Profile
	testkit.Decode(t, rec, &p)
	assert.Equal(t, db.StatusApproved, p.Status)

	// the public cache moved to a new generation
	version, err := env.App.RedisCache.PublicVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestModerationRoutesRequireAdmin(t *testing.T) {
	env, h := setupRoutes(t)
	model := env.Login(t, "u-ana")

	rec := testkit.Do(h, http.MethodPost, "/api/approve/p-bea", map[string]string{"type": "profile"}, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = testkit.Do(h, http.MethodPost, "/api/approve/p-bea", map[string]string{"type": "profile"}, model, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	testkit.Decode(t, rec, &body)
	assert.NotEmpty(t, body["error"])

	rec = testkit.Do(h, http.MethodPatch, "/api/models/p-bea/featured", map[string]bool{"featured": true}, model, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testkit.Do(h, http.MethodGet, "/api/admin/slider", nil, model, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRejectThenApproveRoute(t *testing.T) {
	env, h := setupRoutes(t)
	admin := env.Login(t, "u-admin")

	rec := testkit.Do(h, http.MethodPost, "/api/reject/ph-ana-1", map[string]string{"type": "photo"}, admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var photo db.Photo
	testkit.Decode(t, rec, &photo)
	assert.Equal(t, db.StatusRejected, photo.Status)
	require.NotNil(t, photo.RejectionReason)
	assert.Equal(t, "unspecified", *photo.RejectionReason)

	before := db.Now()
	rec = testkit.Do(h, http.MethodPost, "/api/approve/ph-ana-1", map[string]string{"type": "photo"}, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	photo = db.Photo{}
	testkit.Decode(t, rec, &photo)
	require.NotNil(t, photo.ApprovedAt)
	assert.False(t, photo.ApprovedAt.Before(before))
}

func TestStatusAndFeaturedRoutes(t *testing.T) {
	env, h := setupRoutes(t)
	admin := env.Login(t, "u-admin")

	rec := testkit.Do(h, http.MethodPatch, "/api/models/p-ana/status", map[string]string{"status": "PENDING"}, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p db.Profile
	testkit.Decode(t, rec, &p)
	assert.Nil(t, p.ApprovedAt)

	rec = testkit.Do(h, http.MethodPatch, "/api/models/p-ana/status", map[string]string{"status": "nope"}, admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/models/missing/featured", map[string]bool{"featured": true}, admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/models/p-ana/featured", map[string]string{}, admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/models/p-ana/photos/ph-ana-2", map[string]string{"status": "APPROVED"}, admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/models/p-bea/photos/ph-ana-2", map[string]string{"status": "APPROVED"}, admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSliderRoutes(t *testing.T) {
	env, h := setupRoutes(t)
	admin := env.Login(t, "u-admin")

	rec := testkit.Do(h, http.MethodPost, "/api/slider", map[string]any{"photoId": "ph-ana-1", "order": 1}, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Do(h, http.MethodGet, "/api/admin/slider", nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var photos []db.Photo
	testkit.Decode(t, rec, &photos)
	require.Len(t, photos, 1)

	for i := 0; i < 2; i++ {
		rec = testkit.Do(h, http.MethodDelete, "/api/slider/ph-ana-1", nil, admin, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec = testkit.Do(h, http.MethodPost, "/api/slider", map[string]any{"order": 1}, admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfilePhotoRoute(t *testing.T) {
	env, h := setupRoutes(t)

	rec := testkit.Do(h, http.MethodPatch, "/api/photos/ph-ana-2/profile-photo", nil, env.Login(t, "u-ana"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/photos/ph-ana-2/profile-photo", nil, env.Login(t, "u-bea"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testkit.Do(h, http.MethodPatch, "/api/photos/ph-ana-2/profile-photo", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
