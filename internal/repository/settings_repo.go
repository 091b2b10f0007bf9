package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/model-agency/internal/db"
)

// SettingsRepository reads and writes the singleton site_settings row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(database *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: database}
}

// Get returns the settings row, or an empty row keyed by db.SettingsID when
// nothing has been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*db.SiteSettings, error) {
	var s db.SiteSettings
	err := r.db.WithContext(ctx).First(&s, "id = ?", db.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &db.SiteSettings{ID: db.SettingsID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes columns of values onto the singleton row in one statement.
//
// Behavior:
//   - The primary key is forced to db.SettingsID whatever values carries.
//   - On conflict only the listed columns (plus updated_at) are overwritten,
//     so concurrent partial edits of different fields do not clobber each other.
func (r *SettingsRepository) Upsert(ctx context.Context, values *db.SiteSettings, columns []string) (*db.SiteSettings, error) {
	values.ID = db.SettingsID
	assign := append(append([]string{}, columns...), "updated_at")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(assign),
		}).
		Create(values).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}
