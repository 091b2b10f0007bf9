package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/filestore"
	"github.com/oggyb/model-agency/internal/logger"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/service/moderation"
)

// MaxSize is the largest accepted upload in bytes.
const MaxSize int64 = 5 * 1024 * 1024

// allowedTypes maps accepted MIME types to the extension used when the
// original name has no matching one.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// typeExtensions lists the original-name extensions kept for each type.
var typeExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// Input describes one uploaded file. ProfileID may be empty for a MODEL
// uploading to their own profile.
type Input struct {
	ProfileID      string
	OriginalName   string
	MimeType       string
	Size           int64
	Body           io.Reader
	Title          *string
	Category       *string
	IsProfilePhoto bool
}

// Validate checks the file against the accepted types and the size limit.
// The first violated rule is reported.
func Validate(mimeType string, size int64) error {
	if _, ok := allowedTypes[strings.ToLower(mimeType)]; !ok {
		return svcErr.InvalidInput("file type not allowed: use JPEG, PNG or WebP")
	}
	if size > MaxSize {
		return svcErr.InvalidInput("file too large: maximum is 5 MiB")
	}
	if size <= 0 {
		return svcErr.InvalidInput("file is empty")
	}
	return nil
}

// Pipeline validates, stores and records photo uploads and deletes them.
type Pipeline struct {
	files    *filestore.Local
	profiles *repository.ProfileRepository
	photos   *repository.PhotoRepository
	engine   *moderation.Engine
	now      func() time.Time
	log      *slog.Logger
}

func NewPipeline(appCtx *app.AppContext, engine *moderation.Engine) *Pipeline {
	return &Pipeline{
		files:    appCtx.Files,
		profiles: repository.NewProfileRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		engine:   engine,
		now:      appCtx.Now,
		log:      appCtx.Logger,
	}
}

// Upload stores a photo for a profile.
//
// Behavior:
//   - MODEL callers upload to their own profile only; ADMIN to any; others are forbidden.
//   - Type and size are checked before anything is written, and the head of
//     the body must sniff as the declared type.
//   - The file is written before the record. A failed insert leaves an
//     orphan file for SweepOrphans.
//   - MODEL uploads start PENDING. ADMIN uploads start APPROVED and
//     invalidate the public cache.
//   - A thumbnail is generated when possible; failures are only logged.
func (p *Pipeline) Upload(ctx context.Context, caller *auth.Identity, in Input) (*db.Photo, error) {
	if caller == nil {
		return nil, svcErr.Unauthenticated("authentication required")
	}
	if !caller.IsAdmin() && !caller.IsModel() {
		return nil, svcErr.Forbidden("only models and admins may upload photos")
	}
	if err := Validate(in.MimeType, in.Size); err != nil {
		return nil, err
	}

	profile, err := p.targetProfile(ctx, caller, in.ProfileID)
	if err != nil {
		return nil, err
	}

	mimeType := strings.ToLower(in.MimeType)
	body, err := sniff(in.Body, mimeType)
	if err != nil {
		return nil, err
	}

	now := p.now()
	name := NewFilename(now, in.OriginalName, mimeType)

	written, err := p.files.Save(ctx, name, io.LimitReader(body, MaxSize+1))
	if err != nil {
		return nil, svcErr.Internal(fmt.Errorf("store %s: %w", name, err))
	}
	if written > MaxSize {
		p.removeQuietly(ctx, name)
		return nil, svcErr.InvalidInput("file too large: maximum is 5 MiB")
	}

	photo := &db.Photo{
		ProfileID:      profile.ID,
		UploaderID:     caller.UserID,
		URL:            p.files.URL(name),
		Filename:       name,
		MimeType:       mimeType,
		Size:           written,
		Title:          in.Title,
		Category:       in.Category,
		IsProfilePhoto: in.IsProfilePhoto,
		Status:         db.StatusPending,
		UploadedAt:     now,
	}
	if caller.IsAdmin() {
		photo.Status = db.StatusApproved
		photo.ApprovedAt = &now
	}
	if thumb, err := p.files.Thumbnail(ctx, name); err != nil {
		logger.FromContext(ctx, p.log).Warn("thumbnail failed", "file", name, "err", err)
	} else {
		url := p.files.URL(thumb)
		photo.ThumbnailURL = &url
	}

	if err := p.photos.CreateAppended(ctx, photo); err != nil {
		logger.FromContext(ctx, p.log).Error("photo record failed, file left for sweep", "file", name, "err", err)
		return nil, svcErr.Internal(err)
	}
	logger.FromContext(ctx, p.log).Info("photo uploaded", "photo_id", photo.ID, "profile_id", profile.ID, "status", photo.Status)

	if photo.Status == db.StatusApproved {
		p.engine.Invalidate(ctx)
	}
	return photo, nil
}

func (p *Pipeline) targetProfile(ctx context.Context, caller *auth.Identity, profileID string) (*db.Profile, error) {
	if caller.IsAdmin() {
		if profileID == "" {
			return nil, svcErr.InvalidInput("profile id is required")
		}
		profile, err := p.profiles.FindByID(ctx, profileID)
		if err != nil {
			return nil, svcErr.NotFoundOr(err, "profile not found")
		}
		return profile, nil
	}

	own, err := p.profiles.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, svcErr.NotFoundOr(err, "profile not found")
	}
	if profileID != "" && profileID != own.ID {
		return nil, svcErr.Forbidden("models may only upload to their own profile")
	}
	return own, nil
}

// sniff reads the first 512 bytes of body and checks them against mimeType.
// The returned reader replays those bytes.
func sniff(body io.Reader, mimeType string) (io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, svcErr.Internal(fmt.Errorf("read upload: %w", err))
	}
	head = head[:n]
	if detected := http.DetectContentType(head); detected != mimeType {
		return nil, svcErr.InvalidInput("file content is not a " + mimeType + " image")
	}
	return io.MultiReader(bytes.NewReader(head), body), nil
}

// NewFilename builds "<unix-millis>-<8 hex>.<ext>". The original name's
// extension is kept only when it belongs to mimeType; otherwise the type's
// own extension is used.
func NewFilename(now time.Time, originalName, mimeType string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), token, extension(originalName, mimeType))
}

func extension(originalName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if slices.Contains(typeExtensions[mimeType], ext) {
		return ext
	}
	return allowedTypes[mimeType]
}

// Delete removes a photo. Allowed for the uploader and for admins.
func (p *Pipeline) Delete(ctx context.Context, caller *auth.Identity, photoID string) error {
	return p.delete(ctx, caller, "", photoID)
}

// DeleteFromProfile is Delete that also requires the photo to belong to profileID.
func (p *Pipeline) DeleteFromProfile(ctx context.Context, caller *auth.Identity, profileID, photoID string) error {
	return p.delete(ctx, caller, profileID, photoID)
}

// delete removes the files best-effort, then the record unconditionally.
func (p *Pipeline) delete(ctx context.Context, caller *auth.Identity, profileID, photoID string) error {
	if caller == nil {
		return svcErr.Unauthenticated("authentication required")
	}
	photo, err := p.photos.FindByID(ctx, photoID)
	if err != nil {
		return svcErr.NotFoundOr(err, "photo not found")
	}
	if profileID != "" && photo.ProfileID != profileID {
		return svcErr.NotFound("photo not found")
	}
	if !caller.IsAdmin() && photo.UploaderID != caller.UserID {
		return svcErr.Forbidden("only the uploader or an admin may delete this photo")
	}

	p.removeQuietly(ctx, photo.Filename)
	p.removeQuietly(ctx, filestore.ThumbnailName(photo.Filename))

	if err := p.photos.Delete(ctx, photo.ID); err != nil {
		return svcErr.NotFoundOr(err, "photo not found")
	}
	logger.FromContext(ctx, p.log).Info("photo deleted", "photo_id", photo.ID, "by", caller.UserID)

	if photo.Status == db.StatusApproved {
		p.engine.Invalidate(ctx)
	}
	return nil
}

func (p *Pipeline) removeQuietly(ctx context.Context, name string) {
	if err := p.files.Remove(ctx, name); err != nil {
		logger.FromContext(ctx, p.log).Warn("file removal failed", "file", name, "err", err)
	}
}

// SweepReport lists what a sweep found.
type SweepReport struct {
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	Removed int      `json:"removed"`
}

// SweepOrphans removes files no photo references, thumbnails of referenced
// photos excepted. Files younger than grace are skipped so that uploads still
// between write and insert survive. With dryRun nothing is removed.
func (p *Pipeline) SweepOrphans(ctx context.Context, dryRun bool, grace time.Duration) (*SweepReport, error) {
	names, err := p.photos.Filenames(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	referenced := make(map[string]struct{}, len(names)*2)
	for _, n := range names {
		referenced[n] = struct{}{}
		referenced[filestore.ThumbnailName(n)] = struct{}{}
	}

	files, err := p.files.List(ctx)
	if err != nil {
		return nil, svcErr.Internal(err)
	}

	report := &SweepReport{Scanned: len(files)}
	cutoff := p.now().Add(-grace)
	for _, f := range files {
		if _, ok := referenced[f]; ok {
			continue
		}
		if grace > 0 {
			mod, err := p.files.ModTime(f)
			if err != nil || mod.After(cutoff) {
				continue
			}
		}
		report.Orphans = append(report.Orphans, f)
		if dryRun {
			continue
		}
		if err := p.files.Remove(ctx, f); err != nil {
			logger.FromContext(ctx, p.log).Warn("orphan removal failed", "file", f, "err", err)
			continue
		}
		report.Removed++
	}
	logger.FromContext(ctx, p.log).Info("orphan sweep finished", "scanned", report.Scanned, "orphans", len(report.Orphans), "removed", report.Removed, "dry_run", dryRun)
	return report, nil
}
