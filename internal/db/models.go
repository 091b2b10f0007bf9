package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleModel   Role = "MODEL"
	RoleVisitor Role = "VISITOR"
)

// Status is the moderation state shared by profiles and photos.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is one of the three moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// SettingsID is the only primary key the site_settings table ever holds.
const SettingsID = "singleton"

// User table
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string    `gorm:"size:128" json:"name"`
	Role         Role      `gorm:"size:16;not null;default:VISITOR;index" json:"role"`
	Image        *string   `gorm:"size:512" json:"image"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Profile      *Profile  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Session backs one issued access token. Only the sha256 of the session
// secret is stored.
type Session struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;index"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time `gorm:""`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Profile is a model's public-facing record (1:1 with User).
//
// Indexes:
//   - idx_profiles_status_created(status, created_at DESC)
//     serves the public listing and the admin review queue.
//
// ApprovedAt is set on every transition to APPROVED and cleared on every
// transition to PENDING or REJECTED. Featured is independent of Status.
type Profile struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Slug         string     `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	UserID       string     `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	ArtisticName string     `gorm:"size:128;not null" json:"artisticName"`
	Bio          string     `gorm:"type:text" json:"bio"`
	HeightCm     *int       `json:"heightCm"`
	BustCm       *int       `json:"bustCm"`
	WaistCm      *int       `json:"waistCm"`
	HipsCm       *int       `json:"hipsCm"`
	ShoeSize     *float64   `json:"shoeSize"`
	EyeColor     *string    `gorm:"size:32" json:"eyeColor"`
	HairColor    *string    `gorm:"size:32" json:"hairColor"`
	Location     *string    `gorm:"size:128" json:"location"`
	Status       Status     `gorm:"size:16;not null;default:PENDING;index:idx_profiles_status_created,priority:1" json:"status"`
	ApprovedAt   *time.Time `json:"approvedAt"`
	Featured     bool       `gorm:"not null;default:false;index" json:"featured"`
	Views        int64      `gorm:"not null;default:0" json:"views"`
	Photos       []Photo    `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"photos,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_profiles_status_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Photo is an uploaded image with a moderation status independent of its profile.
//
// Indexes:
//   - idx_photos_profile_order(profile_id, sort_order) for profile galleries.
//   - idx_photos_slider(is_slider_photo, slider_order) for the homepage slider.
type Photo struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	ProfileID       string     `gorm:"size:36;not null;index:idx_photos_profile_order,priority:1" json:"profileId"`
	UploaderID      string     `gorm:"size:36;not null;index" json:"uploaderId"`
	URL             string     `gorm:"size:512;not null" json:"url"`
	ThumbnailURL    *string    `gorm:"size:512" json:"thumbnailUrl"`
	Filename        string     `gorm:"uniqueIndex;size:191;not null" json:"filename"`
	MimeType        string     `gorm:"size:64;not null" json:"mimeType"`
	Size            int64      `gorm:"not null" json:"size"`
	Title           *string    `gorm:"size:255" json:"title"`
	Category        *string    `gorm:"size:64" json:"category"`
	IsProfilePhoto  bool       `gorm:"not null;default:false" json:"isProfilePhoto"`
	IsSliderPhoto   bool       `gorm:"not null;default:false;index:idx_photos_slider,priority:1" json:"isSliderPhoto"`
	SliderOrder     int        `gorm:"not null;default:0;index:idx_photos_slider,priority:2" json:"sliderOrder"`
	Order           int        `gorm:"column:sort_order;not null;default:0;index:idx_photos_profile_order,priority:2" json:"order"`
	Status          Status     `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	RejectionReason *string    `gorm:"size:512" json:"rejectionReason"`
	ApprovedAt      *time.Time `json:"approvedAt"`
	UploadedAt      time.Time  `gorm:"autoCreateTime" json:"uploadedAt"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SiteSettings is the single row of editable homepage copy, keyed by SettingsID.
type SiteSettings struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	HeroTitle    *string   `gorm:"size:255" json:"heroTitle"`
	HeroSubtitle *string   `gorm:"size:512" json:"heroSubtitle"`
	AboutTitle   *string   `gorm:"size:255" json:"aboutTitle"`
	AboutText    *string   `gorm:"type:text" json:"aboutText"`
	ContactEmail *string   `gorm:"size:255" json:"contactEmail"`
	ContactPhone *string   `gorm:"size:64" json:"contactPhone"`
	InstagramURL *string   `gorm:"size:512" json:"instagramUrl"`
	FooterText   *string   `gorm:"size:512" json:"footerText"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SiteSettings) TableName() string { return "site_settings" }

// AllModels lists every table owned by the service, in migration order.
func AllModels() []any {
	return []any{&User{}, &Session{}, &Profile{}, &Photo{}, &SiteSettings{}}
}
