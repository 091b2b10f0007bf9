package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/model-agency/internal/db"
)

// UserRepository covers users and their login sessions.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a user. A non-nil user.Profile is created in the same
// transaction through the association.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) CreateSession(ctx context.Context, s *db.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *UserRepository) FindSession(ctx context.Context, id string) (*db.Session, error) {
	var s db.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// RevokeSession marks a session unusable. Revoking twice is a no-op.
func (r *UserRepository) RevokeSession(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}
