package settings

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

// Patch is a partial edit of the site copy. Nil fields are kept; an empty
// string clears the field.
type Patch struct {
	HeroTitle    *string `json:"heroTitle" validate:"omitnil,max=255"`
	HeroSubtitle *string `json:"heroSubtitle" validate:"omitnil,max=512"`
	AboutTitle   *string `json:"aboutTitle" validate:"omitnil,max=255"`
	AboutText    *string `json:"aboutText" validate:"omitnil,max=20000"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email,max=255"`
	ContactPhone *string `json:"contactPhone" validate:"omitnil,max=64"`
	InstagramURL *string `json:"instagramUrl" validate:"omitempty,url,max=512"`
	FooterText   *string `json:"footerText" validate:"omitnil,max=512"`
}

// apply copies the set fields onto row and returns their column names.
func (p Patch) apply(row *db.SiteSettings) []string {
	var cols []string
	set := func(col string, src *string, dst **string) {
		if src == nil {
			return
		}
		cols = append(cols, col)
		if v := strings.TrimSpace(*src); v != "" {
			*dst = &v
		}
	}
	set("hero_title", p.HeroTitle, &row.HeroTitle)
	set("hero_subtitle", p.HeroSubtitle, &row.HeroSubtitle)
	set("about_title", p.AboutTitle, &row.AboutTitle)
	set("about_text", p.AboutText, &row.AboutText)
	set("contact_email", p.ContactEmail, &row.ContactEmail)
	set("contact_phone", p.ContactPhone, &row.ContactPhone)
	set("instagram_url", p.InstagramURL, &row.InstagramURL)
	set("footer_text", p.FooterText, &row.FooterText)
	return cols
}

// Service reads and edits the singleton site settings.
type Service struct {
	repo   *repository.SettingsRepository
	engine *moderation.Engine
	log    *slog.Logger
}

func NewService(appCtx *app.AppContext, engine *moderation.Engine) *Service {
	return &Service{
		repo:   repository.NewSettingsRepository(appCtx.DB),
		engine: engine,
		log:    appCtx.Logger,
	}
}

// Get returns the settings, all fields null when never saved.
func (s *Service) Get(ctx context.Context) (*db.SiteSettings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return st, nil
}

// Update upserts the fields set in patch. Admin only.
func (s *Service) Update(ctx context.Context, caller *auth.Identity, patch Patch) (*db.SiteSettings, error) {
	if err := moderation.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}

	row := &db.SiteSettings{}
	cols := patch.apply(row)
	st, err := s.repo.Upsert(ctx, row, cols)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.log.Info("site settings updated", "by", caller.UserID, "fields", cols)
	s.engine.Invalidate(ctx)
	return st, nil
}
