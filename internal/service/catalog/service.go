package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/cache"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/utils/pagination"
)

// ModelFilter narrows the public model listing.
type ModelFilter struct {
	Featured *bool
	Query    string
	Limit    int
	Cursor   string
}

// ModelPage is one page of the public listing.
type ModelPage struct {
	Models     []db.Profile `json:"models"`
	NextCursor *string      `json:"nextCursor"`
}

// Service serves the visitor-facing reads. Only APPROVED profiles and
// APPROVED photos are ever returned.
type Service struct {
	profiles *repository.ProfileRepository
	photos   *repository.PhotoRepository
	settings *repository.SettingsRepository
	cache    *cache.RedisCache
	log      *slog.Logger
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		profiles: repository.NewProfileRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		settings: repository.NewSettingsRepository(appCtx.DB),
		cache:    appCtx.RedisCache,
		log:      appCtx.Logger,
	}
}

// ListModels returns APPROVED profiles newest first, each with its APPROVED
// photos in gallery order.
//
// Behavior:
//   - Filters: featured flag, case-insensitive name substring.
//   - Limit defaults to 12, capped at 50.
//   - Results are cached under the generation read before the query, so an
//     invalidation racing the query leaves the new generation empty.
func (s *Service) ListModels(ctx context.Context, f ModelFilter) (*ModelPage, error) {
	f.Limit = pagination.ClampLimit(f.Limit)
	f.Query = strings.TrimSpace(f.Query)
	key := modelsKey(f)

	var page ModelPage
	hit, version, cacheable := s.cached(ctx, key, &page)
	if hit {
		return &page, nil
	}

	profiles, next, err := s.profiles.ListPublic(ctx, repository.PublicFilter{
		Featured: f.Featured,
		Query:    f.Query,
		Limit:    f.Limit,
		Cursor:   f.Cursor,
	})
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return nil, svcErr.InvalidInput("invalid cursor")
		}
		return nil, svcErr.Map(err)
	}
	if profiles == nil {
		profiles = []db.Profile{}
	}
	page = ModelPage{Models: profiles, NextCursor: next}
	if cacheable {
		s.store(ctx, version, key, page)
	}
	return &page, nil
}

// GetModel returns an APPROVED profile by id or slug with APPROVED photos.
func (s *Service) GetModel(ctx context.Context, idOrSlug string) (*db.Profile, error) {
	p, err := s.profiles.FindPublic(ctx, idOrSlug)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "model not found")
	}
	return p, nil
}

// ListSlider returns the public homepage slider: slider photos whose photo
// and profile are both APPROVED, by slider order.
func (s *Service) ListSlider(ctx context.Context) ([]db.Photo, error) {
	var photos []db.Photo
	hit, version, cacheable := s.cached(ctx, "slider", &photos)
	if hit {
		return photos, nil
	}
	photos, err := s.photos.ListSlider(ctx, true)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if photos == nil {
		photos = []db.Photo{}
	}
	if cacheable {
		s.store(ctx, version, "slider", photos)
	}
	return photos, nil
}

// GetSettings returns the site copy, all fields null when never saved.
func (s *Service) GetSettings(ctx context.Context) (*db.SiteSettings, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return st, nil
}

// cached reads name from Redis. Cache errors count as a miss.
// cacheable reports whether the generation was read, so the result may be
// stored under it.
func (s *Service) cached(ctx context.Context, name string, dst any) (hit bool, version int64, cacheable bool) {
	if s.cache == nil {
		return false, 0, false
	}
	hit, version, err := s.cache.GetPublic(ctx, name, dst)
	if err != nil {
		s.log.Warn("public cache read failed", "key", name, "err", err)
		// a bad entry gets overwritten, an unreachable generation does not
		return false, version, errors.Is(err, cache.ErrUndecodable)
	}
	return hit, version, true
}

func (s *Service) store(ctx context.Context, version int64, name string, value any) {
	if err := s.cache.SetPublic(ctx, version, name, value); err != nil {
		s.log.Warn("public cache write failed", "key", name, "err", err)
	}
}

func modelsKey(f ModelFilter) string {
	featured := "any"
	if f.Featured != nil {
		featured = fmt.Sprintf("%t", *f.Featured)
	}
	return fmt.Sprintf("models:f=%s:q=%s:l=%d:c=%s", featured, strings.ToLower(f.Query), f.Limit, f.Cursor)
}
