package checkpoint

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/models"
)

const profile = "https://www.linkedin.com/in/jane-doe/"

func sessionWithBatch() models.ScrapeSession {
	s := models.NewSession(profile, 45, 30)
	b := models.NewBatchResult(45, 0, 30, make([]models.Post, 30))
	b.ProfileLabel = "Jane Doe"
	b.ArtifactPath = "/out/Jane_Doe_linkedin_posts_20240101_120000.txt"
	b.Skipped[models.SkipReposted] = 4
	return s.WithBatch(b).WithFingerprints([]string{"a", "b"})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "jane-doe.checkpoint.json", FileName(profile))
	assert.Equal(t, "company_acme.checkpoint.json", FileName("https://www.linkedin.com/company/acme/"))
	assert.Equal(t, "profile.checkpoint.json", FileName(""))
}

func TestCheckpointManager(t *testing.T) {
	dir := t.TempDir()

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManagerIn(dir, profile)
		require.NoError(t, err)

		_, err = mgr.Create(sessionWithBatch())
		require.NoError(t, err)
		assert.True(t, mgr.Exists())

		loaded, err := mgr.Load()
		require.NoError(t, err)
		require.NotNil(t, loaded)

		s := loaded.ToSession()
		assert.Equal(t, profile, s.ProfileURL)
		assert.Equal(t, 30, s.Offset)
		assert.Equal(t, "Jane Doe", s.ProfileLabel)
		assert.Equal(t, []string{"a", "b"}, s.Fingerprints)
		require.Len(t, s.Batches, 1)
		assert.Equal(t, 4, s.Batches[0].Skipped[models.SkipReposted])
		assert.Equal(t, []string{"/out/Jane_Doe_linkedin_posts_20240101_120000.txt"}, s.ArtifactPaths())
		assert.Equal(t, currentVersion, loaded.Version)
	})

	t.Run("Update", func(t *testing.T) {
		mgr, err := NewManagerIn(dir, profile)
		require.NoError(t, err)
		cp, err := mgr.Load()
		require.NoError(t, err)

		next := cp.ToSession().WithCanonical("/out/merged.txt")
		require.NoError(t, mgr.Update(cp, next))

		loaded, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, "/out/merged.txt", loaded.Session.CanonicalPath)
		assert.False(t, loaded.UpdatedAt.Before(loaded.CreatedAt))
	})

	t.Run("Info", func(t *testing.T) {
		mgr, err := NewManagerIn(dir, profile)
		require.NoError(t, err)

		info, err := mgr.Info()
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, 45, info.Requested)
		assert.Equal(t, 30, info.Collected)
		assert.Equal(t, models.StateRunning, info.State)
	})

	t.Run("Backup", func(t *testing.T) {
		mgr, err := NewManagerIn(dir, profile)
		require.NoError(t, err)
		require.NoError(t, mgr.Backup())

		_, err = os.Stat(mgr.Path() + ".backup")
		assert.NoError(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManagerIn(dir, profile)
		require.NoError(t, err)
		require.NoError(t, mgr.Delete())
		assert.False(t, mgr.Exists())

		loaded, err := mgr.Load()
		assert.NoError(t, err)
		assert.Nil(t, loaded)

		// Deleting twice is fine
		assert.NoError(t, mgr.Delete())
	})
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerIn(dir, profile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"version": 99, "session": {}}`), 0644))

	_, err = mgr.Load()
	assert.ErrorContains(t, err, "newer than supported")
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	older, err := NewManagerIn(dir, "https://www.linkedin.com/company/acme")
	require.NoError(t, err)
	_, err = older.Create(models.NewSession("https://www.linkedin.com/company/acme", 10, 10))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	newer, err := NewManagerIn(dir, profile)
	require.NoError(t, err)
	_, err = newer.Create(sessionWithBatch())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+fileSuffix), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, profile, list[0].ProfileURL)
	assert.Equal(t, "https://www.linkedin.com/company/acme", list[1].ProfileURL)

	missing, err := List(filepath.Join(dir, "nope"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDirectoryHonoursXDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG only applies on Linux")
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := Directory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "liscraper", "checkpoints"), dir)
}
