package dashboard_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/service/dashboard"
	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/testkit"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func setupService(t *testing.T) (*dashboard.Service, *testkit.Env) {
	t.Helper()
	env := testkit.NewApp(t)
	return dashboard.NewService(env.App, moderation.NewEngine(env.App)), env
}

func TestMyProfileShowsEveryPhoto(t *testing.T) {
	svc, env := setupService(t)

	p, err := svc.MyProfile(context.Background(), env.Identity(t, "u-ana"))
	require.NoError(t, err)
	assert.Equal(t, "p-ana", p.ID)
	require.Len(t, p.Photos, 3)
	assert.Equal(t, []string{"ph-ana-1", "ph-ana-2", "ph-ana-3"}, []string{p.Photos[0].ID, p.Photos[1].ID, p.Photos[2].ID})

	_, err = svc.MyProfile(context.Background(), env.Identity(t, "u-admin"))
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))
}

func TestUpdateMyProfile(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	ana := env.Identity(t, "u-ana")

	p, err := svc.UpdateMyProfile(ctx, ana, dashboard.ProfileInput{
		ArtisticName: strPtr("  Ana Lima "),
		HeightCm:     intPtr(178),
		EyeColor:     strPtr("green"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", p.ArtisticName)
	require.NotNil(t, p.HeightCm)
	assert.Equal(t, 178, *p.HeightCm)
	require.NotNil(t, p.EyeColor)

	// status and views are untouched, and an empty string clears
	assert.Equal(t, db.StatusApproved, p.Status)
	p, err = svc.UpdateMyProfile(ctx, ana, dashboard.ProfileInput{EyeColor: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, p.EyeColor)
	assert.Equal(t, "Ana Lima", p.ArtisticName)

	// published profile edits move the public cache on
	v, err := env.App.RedisCache.PublicVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestUpdateMyProfileValidation(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	ana := env.Identity(t, "u-ana")

	_, err := svc.UpdateMyProfile(ctx, ana, dashboard.ProfileInput{HeightCm: intPtr(20), ArtisticName: strPtr("x")})
	require.True(t, svcErr.Is(err, svcErr.KindInvalidInput))
	assert.Equal(t, "artisticName must be at least 2 characters", svcErr.Map(err).Message)

	// padding does not count towards the minimum length
	_, err = svc.UpdateMyProfile(ctx, ana, dashboard.ProfileInput{ArtisticName: strPtr("  a")})
	require.True(t, svcErr.Is(err, svcErr.KindInvalidInput))
	assert.Equal(t, "artisticName must be at least 2 characters", svcErr.Map(err).Message)

	p, err := svc.MyProfile(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.ArtisticName)

	_, err = svc.UpdateMyProfile(ctx, nil, dashboard.ProfileInput{})
	assert.True(t, svcErr.Is(err, svcErr.KindUnauthenticated))
}

func TestAdminQueues(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	pending := db.StatusPending
	profiles, err := svc.ListProfiles(ctx, admin, &pending)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "p-bea", profiles[0].ID)

	all, err := svc.ListProfiles(ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rejected := db.StatusRejected
	photos, err := svc.ListPhotos(ctx, admin, &rejected)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "ph-ana-3", photos[0].ID)

	bogus := db.Status("LATER")
	_, err = svc.ListPhotos(ctx, admin, &bogus)
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidInput))

	p, err := svc.GetProfile(ctx, admin, "p-bea")
	require.NoError(t, err)
	assert.Len(t, p.Photos, 1)

	_, err = svc.GetProfile(ctx, env.Identity(t, "u-ana"), "p-bea")
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))
}

func TestDashboardRoutes(t *testing.T) {
	env := testkit.NewApp(t)
	svc := dashboard.NewService(env.App, moderation.NewEngine(env.App))
	h := env.Router(dashboard.NewRegistrar(env.App, svc))

	rec := testkit.Do(h, http.MethodPatch, "/api/me/profile", map[string]any{"bio": "Runway", "shoeSize": 38.5}, env.Login(t, "u-bea"), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p db.Profile
	testkit.Decode(t, rec, &p)
	assert.Equal(t, "Runway", p.Bio)
	assert.Equal(t, db.StatusPending, p.Status)

	rec = testkit.Do(h, http.MethodPatch, "/api/me/profile", map[string]any{"shoeSize": 99}, env.Login(t, "u-bea"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testkit.Do(h, http.MethodGet, "/api/admin/profiles?status=pending", nil, env.Login(t, "u-admin"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles []db.Profile
	testkit.Decode(t, rec, &profiles)
	assert.Len(t, profiles, 1)

	rec = testkit.Do(h, http.MethodGet, "/api/admin/photos", nil, env.Login(t, "u-vic"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testkit.Do(h, http.MethodGet, "/api/me/profile", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
