package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedOptions controls the demo dataset written by SeedTestData.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// Models is the number of demo model accounts to create.
	Models int
}

// DefaultSeedOptions mirrors the development dataset.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		AdminEmail:    "admin@agency.local",
		AdminPassword: "admin123",
		Models:        6,
	}
}

// SeedTestData populates an empty database with an admin, demo models and
// default site copy.
//
// Behavior:
//  1. Ensures the admin user exists (idempotent, keyed by email).
//  2. Creates demo MODEL users with profiles; every other profile is
//     APPROVED, the first approved one is featured, the rest stay PENDING.
//  3. Upserts the singleton site settings row.
//
// Existing rows are left untouched so the seed can run on every boot.
func SeedTestData(db *gorm.DB, opts SeedOptions) error {
	if err := seedAdmin(db, opts); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := 1; i <= opts.Models; i++ {
		email := fmt.Sprintf("model%d@agency.local", i)

		var existing User
		err := db.Where("email = ?", email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		height := 170 + i
		profile := Profile{
			Slug:         fmt.Sprintf("model-%d", i),
			ArtisticName: fmt.Sprintf("Model %d", i),
			Bio:          "Demo profile",
			HeightCm:     &height,
			Status:       StatusPending,
		}
		if i%2 == 0 {
			approvedAt := now
			profile.Status = StatusApproved
			profile.ApprovedAt = &approvedAt
			profile.Featured = i == 2
		}

		user := User{
			Email:        email,
			Name:         profile.ArtisticName,
			Role:         RoleModel,
			PasswordHash: string(hash),
			Profile:      &profile,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed model: %w", err)
		}
	}
	log.Printf("Seeded %d demo models.", opts.Models)

	title := "Faces that move brands"
	settings := SiteSettings{ID: SettingsID, HeroTitle: &title}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error
}

func seedAdmin(db *gorm.DB, opts SeedOptions) error {
	var count int64
	if err := db.Model(&User{}).Where("email = ?", opts.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := User{
		Email:        opts.AdminEmail,
		Name:         "Administrator",
		Role:         RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Printf("Seeded admin user: email=%s", opts.AdminEmail)
	return nil
}

// SeedMinimalTestData wipes the tables and inserts a deterministic dataset
// used by package tests: one admin, two models (one approved profile with
// mixed-status photos, one pending profile) and a visitor.
func SeedMinimalTestData(db *gorm.DB) error {
	for _, table := range []string{"photos", "profiles", "sessions", "site_settings", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}

	approvedAt := time.Now().UTC().Add(-time.Hour)
	users := []User{
		{ID: "u-admin", Email: "admin@test.com", Name: "Admin", Role: RoleAdmin, PasswordHash: "x"},
		{ID: "u-ana", Email: "ana@test.com", Name: "Ana", Role: RoleModel, PasswordHash: "x"},
		{ID: "u-bea", Email: "bea@test.com", Name: "Bea", Role: RoleModel, PasswordHash: "x"},
		{ID: "u-vic", Email: "vic@test.com", Name: "Vic", Role: RoleVisitor, PasswordHash: "x"},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	profiles := []Profile{
		{ID: "p-ana", Slug: "ana", UserID: "u-ana", ArtisticName: "Ana", Status: StatusApproved, ApprovedAt: &approvedAt},
		{ID: "p-bea", Slug: "bea", UserID: "u-bea", ArtisticName: "Bea", Status: StatusPending},
	}
	if err := db.Create(&profiles).Error; err != nil {
		return err
	}

	reason := "blurry"
	photos := []Photo{
		{ID: "ph-ana-1", ProfileID: "p-ana", UploaderID: "u-ana", URL: "/uploads/ana1.jpg", Filename: "ana1.jpg", MimeType: "image/jpeg", Size: 10, Order: 0, Status: StatusApproved, ApprovedAt: &approvedAt, IsProfilePhoto: true},
		{ID: "ph-ana-2", ProfileID: "p-ana", UploaderID: "u-ana", URL: "/uploads/ana2.jpg", Filename: "ana2.jpg", MimeType: "image/jpeg", Size: 10, Order: 1, Status: StatusPending},
		{ID: "ph-ana-3", ProfileID: "p-ana", UploaderID: "u-ana", URL: "/uploads/ana3.jpg", Filename: "ana3.jpg", MimeType: "image/jpeg", Size: 10, Order: 2, Status: StatusRejected, RejectionReason: &reason},
		{ID: "ph-bea-1", ProfileID: "p-bea", UploaderID: "u-bea", URL: "/uploads/bea1.jpg", Filename: "bea1.jpg", MimeType: "image/png", Size: 10, Order: 0, Status: StatusApproved, ApprovedAt: &approvedAt},
	}
	return db.Create(&photos).Error
}
