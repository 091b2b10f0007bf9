package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/model-agency/internal/db"
)

// PhotoRepository provides data access methods for the Photo model.
// Operations that must keep "one profile photo per profile" hold run in a
// single transaction.
type PhotoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new repository bound to the given DB connection.
func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

// FindByID loads a photo regardless of status.
func (r *PhotoRepository) FindByID(ctx context.Context, id string) (*db.Photo, error) {
	var p db.Photo
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateAppended inserts photo at the end of its profile's gallery.
//
// Behavior:
//   - Order is the number of photos the profile already has. Gaps left by
//     deletes are never reclaimed.
//   - When IsProfilePhoto is set, every sibling loses the flag in the same
//     transaction.
func (r *PhotoRepository) CreateAppended(ctx context.Context, photo *db.Photo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, photo.ProfileID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&db.Photo{}).Where("profile_id = ?", photo.ProfileID).Count(&count).Error; err != nil {
			return err
		}
		photo.Order = int(count)

		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		if photo.IsProfilePhoto {
			return clearSiblingProfilePhotos(tx, photo.ProfileID, photo.ID)
		}
		return nil
	})
}

// SetProfilePhoto marks photoID as its profile's only profile photo.
// Clear and set happen in one transaction, so no reader sees zero or two.
func (r *PhotoRepository) SetProfilePhoto(ctx context.Context, photoID string) (*db.Photo, error) {
	var p db.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", photoID).Error; err != nil {
			return err
		}
		if err := lockProfile(tx, p.ProfileID); err != nil {
			return err
		}
		if err := clearSiblingProfilePhotos(tx, p.ProfileID, p.ID); err != nil {
			return err
		}
		if err := tx.Model(&db.Photo{}).Where("id = ?", p.ID).Update("is_profile_photo", true).Error; err != nil {
			return err
		}
		p.IsProfilePhoto = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lockProfile takes a row lock on the owning profile so writers touching the
// same profile's photos run one at a time. SQLite has no row locks; its
// single writer serializes anyway.
func lockProfile(tx *gorm.DB, profileID string) error {
	var p db.Profile
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&p, "id = ?", profileID).Error
}

func clearSiblingProfilePhotos(tx *gorm.DB, profileID, keepID string) error {
	return tx.Model(&db.Photo{}).
		Where("profile_id = ? AND id <> ? AND is_profile_photo = ?", profileID, keepID, true).
		Update("is_profile_photo", false).Error
}

// SetStatus moves a photo to status.
//
// Behavior:
//   - APPROVED sets approved_at to now and clears the rejection reason.
//   - PENDING clears approved_at and the rejection reason.
//   - REJECTED clears approved_at and stores reason.
func (r *PhotoRepository) SetStatus(ctx context.Context, id string, status db.Status, reason *string, now time.Time) (*db.Photo, error) {
	fields := map[string]any{"status": status}
	switch status {
	case db.StatusApproved:
		fields["approved_at"] = now
		fields["rejection_reason"] = nil
	case db.StatusRejected:
		fields["approved_at"] = nil
		fields["rejection_reason"] = reason
	default:
		fields["approved_at"] = nil
		fields["rejection_reason"] = nil
	}
	return r.update(ctx, id, fields)
}

// SetSlider puts a photo on the homepage slider at order, or takes it off
// (order reset to 0).
func (r *PhotoRepository) SetSlider(ctx context.Context, id string, onSlider bool, order int) (*db.Photo, error) {
	if !onSlider {
		order = 0
	}
	return r.update(ctx, id, map[string]any{
		"is_slider_photo": onSlider,
		"slider_order":    order,
	})
}

func (r *PhotoRepository) update(ctx context.Context, id string, fields map[string]any) (*db.Photo, error) {
	var p db.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Photo{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&p, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the photo row. A missing row is gorm.ErrRecordNotFound.
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Photo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProfile returns a profile's gallery in order.
func (r *PhotoRepository) ListByProfile(ctx context.Context, profileID string) ([]db.Photo, error) {
	var photos []db.Photo
	err := allPhotos(r.db.WithContext(ctx)).
		Where("profile_id = ?", profileID).
		Find(&photos).Error
	return photos, err
}

// List returns photos for the admin queue, oldest upload first, optionally by status.
func (r *PhotoRepository) List(ctx context.Context, status *db.Status) ([]db.Photo, error) {
	query := r.db.WithContext(ctx).Order("uploaded_at ASC, id ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var photos []db.Photo
	if err := query.Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// ListSlider returns slider photos by slider_order ascending. With
// publicOnly, the photo and its owning profile must both be APPROVED.
func (r *PhotoRepository) ListSlider(ctx context.Context, publicOnly bool) ([]db.Photo, error) {
	query := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Select("photos.*").
		Joins("JOIN profiles ON profiles.id = photos.profile_id").
		Where("photos.is_slider_photo = ?", true).
		Order("photos.slider_order ASC, photos.id ASC")
	if publicOnly {
		query = query.Where("photos.status = ? AND profiles.status = ?", db.StatusApproved, db.StatusApproved)
	}
	var photos []db.Photo
	if err := query.Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// Filenames returns every stored filename referenced by a photo row.
func (r *PhotoRepository) Filenames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&db.Photo{}).Pluck("filename", &names).Error
	return names, err
}
