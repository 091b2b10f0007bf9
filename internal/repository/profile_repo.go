package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/utils/pagination"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// PublicFilter narrows the visitor-facing listing.
type PublicFilter struct {
	Featured *bool
	Query    string
	Limit    int
	Cursor   string
}

// approvedPhotos preloads only APPROVED photos in gallery order.
func approvedPhotos(tx *gorm.DB) *gorm.DB {
	return tx.Where("status = ?", db.StatusApproved).Order("sort_order ASC, uploaded_at ASC")
}

func allPhotos(tx *gorm.DB) *gorm.DB {
	return tx.Order("sort_order ASC, uploaded_at ASC")
}

// FindByID loads a profile regardless of status, without photos.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindWithPhotos loads a profile with every photo, for owners and admins.
func (r *ProfileRepository) FindWithPhotos(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Preload("Photos", allPhotos).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByUserID loads the profile owned by userID.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPublic loads an APPROVED profile by id or slug with APPROVED photos only.
func (r *ProfileRepository) FindPublic(ctx context.Context, idOrSlug string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Preload("Photos", approvedPhotos).
		Where("(id = ? OR slug = ?) AND status = ?", idOrSlug, idOrSlug, db.StatusApproved).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPublic returns APPROVED profiles, newest first, each with APPROVED photos.
//
// Behavior:
//   - Optional featured flag and case-insensitive artistic name filter.
//   - Cursor-based pagination on (created_at DESC, id DESC).
func (r *ProfileRepository) ListPublic(ctx context.Context, f PublicFilter) ([]db.Profile, *string, error) {
	limit := pagination.ClampLimit(f.Limit)

	cursor, err := pagination.Decode(f.Cursor)
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Preload("Photos", approvedPhotos).
		Where("status = ?", db.StatusApproved).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if f.Featured != nil {
		query = query.Where("featured = ?", *f.Featured)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		query = query.Where("LOWER(artistic_name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if !cursor.Empty() {
		ts := cursor.CreatedAt()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var profiles []db.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(profiles) > limit {
		last := profiles[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		profiles = profiles[:limit]
	}

	return profiles, nextToken, nil
}

// List returns profiles for the admin review queue, optionally by status.
func (r *ProfileRepository) List(ctx context.Context, status *db.Status) ([]db.Profile, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var profiles []db.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// SetStatus moves a profile to status and keeps approved_at consistent:
// set to now on APPROVED, cleared on PENDING or REJECTED.
func (r *ProfileRepository) SetStatus(ctx context.Context, id string, status db.Status, now time.Time) (*db.Profile, error) {
	var approvedAt *time.Time
	if status == db.StatusApproved {
		approvedAt = &now
	}
	return r.update(ctx, id, map[string]any{
		"status":      status,
		"approved_at": approvedAt,
	})
}

// SetFeatured flips the promotional flag. Status is untouched.
func (r *ProfileRepository) SetFeatured(ctx context.Context, id string, featured bool) (*db.Profile, error) {
	return r.update(ctx, id, map[string]any{"featured": featured})
}

// UpdateDetails writes owner-editable columns. Callers must not pass
// status, approved_at, featured or views.
func (r *ProfileRepository) UpdateDetails(ctx context.Context, id string, fields map[string]any) (*db.Profile, error) {
	return r.update(ctx, id, fields)
}

// update loads, writes and reloads inside one transaction so that a missing
// row is reported even on drivers that count only changed rows.
func (r *ProfileRepository) update(ctx context.Context, id string, fields map[string]any) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&p).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.First(&p, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementViews adds one view atomically in the database.
func (r *ProfileRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SlugExists reports whether any profile already uses slug.
func (r *ProfileRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
