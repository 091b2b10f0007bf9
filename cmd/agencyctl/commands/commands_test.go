package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/service/upload"
)

// run executes agencyctl against a throwaway SQLite file and upload dir.
func run(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--driver", "sqlite", "--db", dbPath}, args...))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func setupEnv(t *testing.T) (dbPath, uploads string) {
	t.Helper()
	dir := t.TempDir()
	uploads = filepath.Join(dir, "uploads")
	mr := miniredis.RunT(t)

	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("UPLOAD_DIR", uploads)
	jsonOutput = false
	return filepath.Join(dir, "agency.db"), uploads
}

func TestMigrateAndSeed(t *testing.T) {
	dbPath, _ := setupEnv(t)

	assert.Contains(t, run(t, dbPath, "migrate"), "schema up to date")
	out := run(t, dbPath, "seed", "--admin-email", "ops@agency.com", "--admin-password", "s3cret-pass", "--models", "2")
	assert.Contains(t, out, "Seeding completed.")

	// second run leaves existing rows alone
	run(t, dbPath, "seed", "--admin-email", "ops@agency.com", "--admin-password", "s3cret-pass", "--models", "2")
}

func TestSweep(t *testing.T) {
	dbPath, uploads := setupEnv(t)
	run(t, dbPath, "migrate")
	require.NoError(t, os.MkdirAll(uploads, 0o755))

	old := filepath.Join(uploads, "stale.jpg")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "fresh.jpg"), []byte("x"), 0o644))

	out := run(t, dbPath, "--json", "sweep", "--dry-run", "--grace", "1h")
	var report upload.SweepReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, []string{"stale.jpg"}, report.Orphans)
	assert.Zero(t, report.Removed)
	assert.FileExists(t, old)

	jsonOutput = false
	out = run(t, dbPath, "sweep", "--dry-run=false", "--grace", "1h")
	assert.Contains(t, out, "stale.jpg")
	assert.Contains(t, out, "removed 1")
	assert.NoFileExists(t, old)
	assert.FileExists(t, filepath.Join(uploads, "fresh.jpg"))
}
