package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/logger"
	"github.com/oggyb/model-agency/internal/repository"
)

// DefaultRejectionReason is stored when a photo is rejected without a reason.
const DefaultRejectionReason = "unspecified"

// Kind names the entity a moderation decision applies to.
type Kind string

const (
	KindProfile Kind = "profile"
	KindPhoto   Kind = "photo"
)

// Invalidator drops cached public listings after visible content changes.
type Invalidator interface {
	InvalidatePublic(ctx context.Context) error
}

// Engine owns every status, featured and slider transition of profiles and
// photos. All mutating operations require an ADMIN caller except
// SetProfilePhoto (uploader or admin) and RecordView (anyone).
type Engine struct {
	profiles *repository.ProfileRepository
	photos   *repository.PhotoRepository
	cache    Invalidator
	now      func() time.Time
	log      *slog.Logger
}

// NewEngine wires the engine from the app context. The Redis cache, when
// configured, receives invalidations.
func NewEngine(appCtx *app.AppContext) *Engine {
	e := &Engine{
		profiles: repository.NewProfileRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		now:      appCtx.Now,
		log:      appCtx.Logger,
	}
	if appCtx.RedisCache != nil {
		e.cache = appCtx.RedisCache
	}
	return e
}

// WithInvalidator replaces the cache hook.
func (e *Engine) WithInvalidator(inv Invalidator) *Engine {
	e.cache = inv
	return e
}

// RequireAdmin fails with Unauthenticated for anonymous callers and
// Forbidden for non-admins.
func RequireAdmin(caller *auth.Identity) error {
	if caller == nil {
		return svcErr.Unauthenticated("authentication required")
	}
	if !caller.IsAdmin() {
		return svcErr.Forbidden("admin access required")
	}
	return nil
}

// Invalidate bumps the public cache generation. A failure is logged: the
// write already happened and stale entries still expire through their TTL.
func (e *Engine) Invalidate(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidatePublic(ctx); err != nil {
		logger.FromContext(ctx, e.log).Warn("public cache invalidation failed", "err", err)
	}
}

// Approve moves a profile or photo to APPROVED and stamps approvedAt.
// The result is *db.Profile or *db.Photo depending on kind.
func (e *Engine) Approve(ctx context.Context, caller *auth.Identity, id string, kind Kind) (any, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	switch kind {
	case KindProfile:
		return e.setProfileStatus(ctx, id, db.StatusApproved)
	case KindPhoto:
		return e.setPhotoStatus(ctx, id, db.StatusApproved, nil)
	default:
		return nil, svcErr.InvalidInput("type must be profile or photo")
	}
}

// Reject moves a profile or photo to REJECTED and clears approvedAt.
// Photos keep reason, or DefaultRejectionReason when it is empty.
func (e *Engine) Reject(ctx context.Context, caller *auth.Identity, id string, kind Kind, reason string) (any, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	switch kind {
	case KindProfile:
		return e.setProfileStatus(ctx, id, db.StatusRejected)
	case KindPhoto:
		return e.setPhotoStatus(ctx, id, db.StatusRejected, &reason)
	default:
		return nil, svcErr.InvalidInput("type must be profile or photo")
	}
}

// SetProfileStatus applies any status to a profile. APPROVED -> PENDING
// unpublishes it.
func (e *Engine) SetProfileStatus(ctx context.Context, caller *auth.Identity, profileID string, status db.Status) (*db.Profile, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, svcErr.InvalidInput("status must be PENDING, APPROVED or REJECTED")
	}
	return e.setProfileStatus(ctx, profileID, status)
}

// SetPhotoStatus applies status to a photo of profileID. A photo that
// belongs to another profile is reported as not found.
func (e *Engine) SetPhotoStatus(ctx context.Context, caller *auth.Identity, profileID, photoID string, status db.Status, reason string) (*db.Photo, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, svcErr.InvalidInput("status must be PENDING, APPROVED or REJECTED")
	}
	photo, err := e.photos.FindByID(ctx, photoID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	if photo.ProfileID != profileID {
		return nil, svcErr.NotFound("photo not found")
	}
	var r *string
	if status == db.StatusRejected {
		r = &reason
	}
	return e.setPhotoStatus(ctx, photoID, status, r)
}

func (e *Engine) setProfileStatus(ctx context.Context, id string, status db.Status) (*db.Profile, error) {
	p, err := e.profiles.SetStatus(ctx, id, status, e.now())
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	logger.FromContext(ctx, e.log).Info("profile status changed", "profile_id", id, "status", status)
	e.Invalidate(ctx)
	return p, nil
}

// setPhotoStatus treats reason only for REJECTED, where an empty reason
// becomes DefaultRejectionReason.
func (e *Engine) setPhotoStatus(ctx context.Context, id string, status db.Status, reason *string) (*db.Photo, error) {
	if status == db.StatusRejected {
		r := DefaultRejectionReason
		if reason != nil && *reason != "" {
			r = *reason
		}
		reason = &r
	}
	p, err := e.photos.SetStatus(ctx, id, status, reason, e.now())
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	logger.FromContext(ctx, e.log).Info("photo status changed", "photo_id", id, "status", status)
	e.Invalidate(ctx)
	return p, nil
}

// SetFeatured sets the promotional flag. Idempotent; status is untouched.
func (e *Engine) SetFeatured(ctx context.Context, caller *auth.Identity, profileID string, featured bool) (*db.Profile, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := e.profiles.SetFeatured(ctx, profileID, featured)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	e.Invalidate(ctx)
	return p, nil
}

// SetProfilePhoto makes photoID the only profile photo of its profile.
// Allowed for the photo's uploader and for admins.
func (e *Engine) SetProfilePhoto(ctx context.Context, caller *auth.Identity, photoID string) (*db.Photo, error) {
	if caller == nil {
		return nil, svcErr.Unauthenticated("authentication required")
	}
	photo, err := e.photos.FindByID(ctx, photoID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	if !caller.IsAdmin() && photo.UploaderID != caller.UserID {
		return nil, svcErr.Forbidden("only the uploader or an admin may change the profile photo")
	}

	photo, err = e.photos.SetProfilePhoto(ctx, photoID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	e.Invalidate(ctx)
	return photo, nil
}

// AddToSlider puts a photo on the homepage slider at order.
func (e *Engine) AddToSlider(ctx context.Context, caller *auth.Identity, photoID string, order int) (*db.Photo, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if order < 0 {
		return nil, svcErr.InvalidInput("order must not be negative")
	}
	p, err := e.photos.SetSlider(ctx, photoID, true, order)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	e.Invalidate(ctx)
	return p, nil
}

// RemoveFromSlider takes a photo off the slider. Removing a photo that is not
// on the slider succeeds.
func (e *Engine) RemoveFromSlider(ctx context.Context, caller *auth.Identity, photoID string) (*db.Photo, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := e.photos.SetSlider(ctx, photoID, false, 0)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "photo not found")
	}
	e.Invalidate(ctx)
	return p, nil
}

// ListSlider returns every slider photo regardless of status, for the back office.
func (e *Engine) ListSlider(ctx context.Context, caller *auth.Identity) ([]db.Photo, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	photos, err := e.photos.ListSlider(ctx, false)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return photos, nil
}

// RecordView adds one view to a profile. Safe for anonymous callers and
// concurrent use; the increment happens in the database.
func (e *Engine) RecordView(ctx context.Context, profileID string) error {
	if err := e.profiles.IncrementViews(ctx, profileID); err != nil {
		return svcErr.NotFoundOr(err, "profile not found")
	}
	return nil
}
