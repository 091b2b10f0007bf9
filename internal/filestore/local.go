package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder used by imaging.Open

	"github.com/oggyb/model-agency/internal/config"
)

// ThumbPrefix marks generated previews inside the upload directory.
const ThumbPrefix = "thumb_"

var ErrInvalidName = errors.New("invalid file name")

// Local stores blobs as flat files in one directory, addressed by generated filename.
type Local struct {
	dir        string
	publicPath string
	thumbSize  int
}

// NewLocal creates the upload directory when missing.
func NewLocal(cfg *config.Config) (*Local, error) {
	dir := cfg.Upload.Dir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	size := cfg.Upload.ThumbSize
	if size <= 0 {
		size = 480
	}
	public := cfg.Upload.PublicPath
	if public == "" {
		public = "/uploads"
	}
	return &Local{dir: dir, publicPath: public, thumbSize: size}, nil
}

func (l *Local) Dir() string { return l.dir }

// URL returns the public path the HTTP server serves the file under.
func (l *Local) URL(name string) string {
	return path.Join(l.publicPath, name)
}

func (l *Local) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(l.dir, name), nil
}

// Save writes r to name and syncs it before returning, so a record created
// afterwards never points at a half-written file.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	full, err := l.path(name)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return 0, fmt.Errorf("move %s into place: %w", name, err)
	}
	return n, nil
}

// Remove deletes name. A file that is already gone is not an error.
func (l *Local) Remove(ctx context.Context, name string) error {
	full, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether name is present on disk.
func (l *Local) Exists(name string) bool {
	full, err := l.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// ModTime returns the last modification time of name.
func (l *Local) ModTime(name string) (time.Time, error) {
	full, err := l.path(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ThumbnailName is the preview file generated for name.
func ThumbnailName(name string) string {
	return ThumbPrefix + strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}

// Thumbnail renders a JPEG preview of name fitted into the configured box and
// returns the preview's file name.
func (l *Local) Thumbnail(ctx context.Context, name string) (string, error) {
	src, err := l.path(name)
	if err != nil {
		return "", err
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	thumb := ThumbnailName(name)
	dst, err := l.path(thumb)
	if err != nil {
		return "", err
	}
	fitted := imaging.Fit(img, l.thumbSize, l.thumbSize, imaging.Lanczos)
	if err := imaging.Save(fitted, dst, imaging.JPEGQuality(82)); err != nil {
		return "", fmt.Errorf("save thumbnail %s: %w", thumb, err)
	}
	return thumb, nil
}

// List returns every stored file name, sorted. Temp files are skipped.
func (l *Local) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
