package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/testkit"
)

// countingInvalidator records invalidation calls.
type countingInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingInvalidator) InvalidatePublic(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func setupEngine(t *testing.T) (*moderation.Engine, *testkit.Env, *countingInvalidator) {
	t.Helper()
	env := testkit.NewApp(t)
	inv := &countingInvalidator{}
	return moderation.NewEngine(env.App).WithInvalidator(inv), env, inv
}

func TestApproveProfile(t *testing.T) {
	engine, env, inv := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	before := db.Now()
	out, err := engine.Approve(ctx, admin, "p-bea", moderation.KindProfile)
	require.NoError(t, err)

	p := out.(*db.Profile)
	assert.Equal(t, db.StatusApproved, p.Status)
	require.NotNil(t, p.ApprovedAt)
	assert.False(t, p.ApprovedAt.Before(before))
	assert.Equal(t, 1, inv.count())
}

func TestApprovePhotoClearsReason(t *testing.T) {
	engine, env, inv := setupEngine(t)
	ctx := context.Background()

	out, err := engine.Approve(ctx, env.Identity(t, "u-admin"), "ph-ana-3", moderation.KindPhoto)
	require.NoError(t, err)

	p := out.(*db.Photo)
	assert.Equal(t, db.StatusApproved, p.Status)
	assert.NotNil(t, p.ApprovedAt)
	assert.Nil(t, p.RejectionReason)
	assert.Equal(t, 1, inv.count())
}

func TestApproveRequiresAdmin(t *testing.T) {
	engine, env, inv := setupEngine(t)
	ctx := context.Background()

	_, err := engine.Approve(ctx, nil, "p-bea", moderation.KindProfile)
	assert.True(t, svcErr.Is(err, svcErr.KindUnauthenticated))

	_, err = engine.Approve(ctx, env.Identity(t, "u-ana"), "p-bea", moderation.KindProfile)
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))

	// nothing changed
	var profile db.Profile
	require.NoError(t, env.App.DB.First(&profile, "id = ?", "p-bea").Error)
	assert.Equal(t, db.StatusPending, profile.Status)
	assert.Zero(t, inv.count())
}

func TestApproveUnknownAndBadKind(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	_, err := engine.Approve(ctx, admin, "missing", moderation.KindProfile)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = engine.Approve(ctx, admin, "missing", moderation.KindPhoto)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = engine.Approve(ctx, admin, "p-bea", moderation.Kind("user"))
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidInput))
}

func TestRejectPhotoDefaultsReason(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()

	out, err := engine.Reject(ctx, env.Identity(t, "u-admin"), "ph-ana-1", moderation.KindPhoto, "")
	require.NoError(t, err)

	p := out.(*db.Photo)
	assert.Equal(t, db.StatusRejected, p.Status)
	require.NotNil(t, p.RejectionReason)
	assert.Equal(t, moderation.DefaultRejectionReason, *p.RejectionReason)
	assert.Nil(t, p.ApprovedAt)
}

func TestRejectThenApproveStampsNewApprovedAt(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	out, err := engine.Reject(ctx, admin, "p-ana", moderation.KindProfile, "")
	require.NoError(t, err)
	assert.Nil(t, out.(*db.Profile).ApprovedAt)

	before := db.Now()
	out, err = engine.Approve(ctx, admin, "p-ana", moderation.KindProfile)
	require.NoError(t, err)
	p := out.(*db.Profile)
	require.NotNil(t, p.ApprovedAt)
	assert.False(t, p.ApprovedAt.Before(before))
}

func TestSetProfileStatus(t *testing.T) {
	engine, env, inv := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	// unpublish
	p, err := engine.SetProfileStatus(ctx, admin, "p-ana", db.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, p.Status)
	assert.Nil(t, p.ApprovedAt)

	_, err = engine.SetProfileStatus(ctx, admin, "p-ana", db.Status("ARCHIVED"))
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidInput))
	assert.Equal(t, 1, inv.count())
}

func TestSetPhotoStatusChecksMembership(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	_, err := engine.SetPhotoStatus(ctx, admin, "p-bea", "ph-ana-2", db.StatusApproved, "")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	p, err := engine.SetPhotoStatus(ctx, admin, "p-ana", "ph-ana-2", db.StatusRejected, "cropped")
	require.NoError(t, err)
	require.NotNil(t, p.RejectionReason)
	assert.Equal(t, "cropped", *p.RejectionReason)
}

func TestSetFeaturedIdempotent(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	for i := 0; i < 2; i++ {
		p, err := engine.SetFeatured(ctx, admin, "p-bea", true)
		require.NoError(t, err)
		assert.True(t, p.Featured)
		assert.Equal(t, db.StatusPending, p.Status)
	}

	_, err := engine.SetFeatured(ctx, admin, "missing", true)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestSetProfilePhotoPermissions(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()

	_, err := engine.SetProfilePhoto(ctx, env.Identity(t, "u-bea"), "ph-ana-2")
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))

	p, err := engine.SetProfilePhoto(ctx, env.Identity(t, "u-ana"), "ph-ana-2")
	require.NoError(t, err)
	assert.True(t, p.IsProfilePhoto)

	p, err = engine.SetProfilePhoto(ctx, env.Identity(t, "u-admin"), "ph-ana-3")
	require.NoError(t, err)
	assert.True(t, p.IsProfilePhoto)

	var flagged int64
	require.NoError(t, env.App.DB.Model(&db.Photo{}).
		Where("profile_id = ? AND is_profile_photo = ?", "p-ana", true).
		Count(&flagged).Error)
	assert.Equal(t, int64(1), flagged)
}

func TestSliderAddRemove(t *testing.T) {
	engine, env, inv := setupEngine(t)
	ctx := context.Background()
	admin := env.Identity(t, "u-admin")

	p, err := engine.AddToSlider(ctx, admin, "ph-ana-1", 3)
	require.NoError(t, err)
	assert.True(t, p.IsSliderPhoto)
	assert.Equal(t, 3, p.SliderOrder)

	for i := 0; i < 2; i++ {
		p, err = engine.RemoveFromSlider(ctx, admin, "ph-ana-1")
		require.NoError(t, err)
		assert.False(t, p.IsSliderPhoto)
		assert.Equal(t, 0, p.SliderOrder)
	}
	assert.Equal(t, 3, inv.count())

	_, err = engine.AddToSlider(ctx, admin, "ph-ana-1", -1)
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidInput))

	_, err = engine.RemoveFromSlider(ctx, admin, "missing")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = engine.ListSlider(ctx, env.Identity(t, "u-vic"))
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))
}

func TestRecordViewConcurrent(t *testing.T) {
	engine, env, _ := setupEngine(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, engine.RecordView(ctx, "p-ana"))
		}()
	}
	wg.Wait()

	var p db.Profile
	require.NoError(t, env.App.DB.First(&p, "id = ?", "p-ana").Error)
	assert.Equal(t, int64(n), p.Views)

	assert.True(t, svcErr.Is(engine.RecordView(ctx, "missing"), svcErr.KindNotFound))
}

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	env := testkit.NewApp(t)
	inv := &countingInvalidator{err: errors.New("redis down")}
	engine := moderation.NewEngine(env.App).WithInvalidator(inv)

	p, err := engine.SetFeatured(context.Background(), env.Identity(t, "u-admin"), "p-ana", true)
	require.NoError(t, err)
	assert.True(t, p.Featured)
	assert.Equal(t, 1, inv.count())
}

func TestPinnedClock(t *testing.T) {
	env := testkit.NewApp(t)
	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.App.Now = func() time.Time { return pinned }
	engine := moderation.NewEngine(env.App).WithInvalidator(&countingInvalidator{})

	admin := &auth.Identity{UserID: "u-admin", Role: db.RoleAdmin}
	out, err := engine.Approve(context.Background(), admin, "p-bea", moderation.KindProfile)
	require.NoError(t, err)
	assert.True(t, out.(*db.Profile).ApprovedAt.Equal(pinned))
}
