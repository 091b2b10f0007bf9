package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/utils/validate"
)

// ProfileInput is an owner's partial profile edit. Nil fields are left
// alone; an empty string clears an optional text attribute.
// Status, featured and views are not editable here.
type ProfileInput struct {
	ArtisticName *string  `json:"artisticName" validate:"omitnil,min=2,max=128"`
	Bio          *string  `json:"bio" validate:"omitnil,max=4000"`
	HeightCm     *int     `json:"heightCm" validate:"omitnil,min=100,max=250"`
	BustCm       *int     `json:"bustCm" validate:"omitnil,min=40,max=200"`
	WaistCm      *int     `json:"waistCm" validate:"omitnil,min=40,max=200"`
	HipsCm       *int     `json:"hipsCm" validate:"omitnil,min=40,max=200"`
	ShoeSize     *float64 `json:"shoeSize" validate:"omitnil,min=15,max=55"`
	EyeColor     *string  `json:"eyeColor" validate:"omitnil,max=32"`
	HairColor    *string  `json:"hairColor" validate:"omitnil,max=32"`
	Location     *string  `json:"location" validate:"omitnil,max=128"`
}

// trimmed returns a copy with the free-text fields trimmed, so length rules
// apply to what gets stored.
func (in ProfileInput) trimmed() ProfileInput {
	for _, f := range []**string{&in.ArtisticName, &in.EyeColor, &in.HairColor, &in.Location} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return in
}

// fields maps the set values to columns.
func (in ProfileInput) fields() map[string]any {
	out := map[string]any{}
	if in.ArtisticName != nil {
		out["artistic_name"] = *in.ArtisticName
	}
	if in.Bio != nil {
		out["bio"] = *in.Bio
	}
	if in.HeightCm != nil {
		out["height_cm"] = *in.HeightCm
	}
	if in.BustCm != nil {
		out["bust_cm"] = *in.BustCm
	}
	if in.WaistCm != nil {
		out["waist_cm"] = *in.WaistCm
	}
	if in.HipsCm != nil {
		out["hips_cm"] = *in.HipsCm
	}
	if in.ShoeSize != nil {
		out["shoe_size"] = *in.ShoeSize
	}
	for col, v := range map[string]*string{"eye_color": in.EyeColor, "hair_color": in.HairColor, "location": in.Location} {
		if v == nil {
			continue
		}
		if *v != "" {
			out[col] = *v
		} else {
			out[col] = nil
		}
	}
	return out
}

// Service backs the model dashboard and the admin review queues.
type Service struct {
	profiles *repository.ProfileRepository
	photos   *repository.PhotoRepository
	engine   *moderation.Engine
	log      *slog.Logger
}

func NewService(appCtx *app.AppContext, engine *moderation.Engine) *Service {
	return &Service{
		profiles: repository.NewProfileRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		engine:   engine,
		log:      appCtx.Logger,
	}
}

func requireModel(caller *auth.Identity) error {
	if caller == nil {
		return svcErr.Unauthenticated("authentication required")
	}
	if !caller.IsModel() {
		return svcErr.Forbidden("only models have a profile")
	}
	return nil
}

// MyProfile returns the caller's profile with every photo, whatever its status.
func (s *Service) MyProfile(ctx context.Context, caller *auth.Identity) (*db.Profile, error) {
	if err := requireModel(caller); err != nil {
		return nil, err
	}
	own, err := s.profiles.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	p, err := s.profiles.FindWithPhotos(ctx, own.ID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	return p, nil
}

// UpdateMyProfile applies an owner edit. Edits to a published profile
// invalidate the public cache.
func (s *Service) UpdateMyProfile(ctx context.Context, caller *auth.Identity, in ProfileInput) (*db.Profile, error) {
	if err := requireModel(caller); err != nil {
		return nil, err
	}
	in = in.trimmed()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	own, err := s.profiles.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}

	p, err := s.profiles.UpdateDetails(ctx, own.ID, in.fields())
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	if p.Status == db.StatusApproved {
		s.engine.Invalidate(ctx)
	}
	return p, nil
}

// ListProfiles is the admin review queue, optionally narrowed by status.
func (s *Service) ListProfiles(ctx context.Context, caller *auth.Identity, status *db.Status) ([]db.Profile, error) {
	if err := moderation.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, svcErr.InvalidInput("status must be PENDING, APPROVED or REJECTED")
	}
	profiles, err := s.profiles.List(ctx, status)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return profiles, nil
}

// ListPhotos is the admin photo queue, oldest upload first.
func (s *Service) ListPhotos(ctx context.Context, caller *auth.Identity, status *db.Status) ([]db.Photo, error) {
	if err := moderation.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, svcErr.InvalidInput("status must be PENDING, APPROVED or REJECTED")
	}
	photos, err := s.photos.List(ctx, status)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return photos, nil
}

// GetProfile returns any profile with all its photos, for admins.
func (s *Service) GetProfile(ctx context.Context, caller *auth.Identity, profileID string) (*db.Profile, error) {
	if err := moderation.RequireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := s.profiles.FindWithPhotos(ctx, profileID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	return p, nil
}
