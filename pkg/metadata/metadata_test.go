package metadata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/models"
)

func TestFromSessionAndRoundTrip(t *testing.T) {
	posts := []models.Post{
		{Content: "first\nline", Date: "1d", Engagement: models.DefaultEngagement()},
		{Content: "second", Date: "2d", Engagement: models.Engagement{Likes: "3", Comments: "0", Shares: "1"}},
	}
	s := models.NewSession("https://www.linkedin.com/in/jane", 2, 30)
	b := models.NewBatchResult(2, 0, 2, posts)
	b.ArtifactPath = "/out/Jane_linkedin_posts_20240101_000000.txt"
	b.Pagination = models.ExitTarget
	s = s.WithBatch(b).WithCanonical(b.ArtifactPath)

	started := time.Now().Add(-time.Minute)
	meta := FromSession(s, posts, started)

	assert.Equal(t, models.StateComplete, meta.State)
	assert.Equal(t, 2, meta.Collected)
	assert.Equal(t, "Jane_linkedin_posts_20240101_000000.txt", meta.Canonical)
	require.Len(t, meta.Posts, 2)
	assert.Equal(t, 2, meta.Posts[1].Position)
	assert.Equal(t, models.Fingerprint("second"), meta.Posts[1].Fingerprint)
	require.Len(t, meta.Batches, 1)
	assert.Equal(t, 1, meta.Batches[0].Index)

	artifact := filepath.Join(t.TempDir(), "canonical.txt")
	require.NoError(t, meta.Save(artifact))
	assert.True(t, Exists(artifact))

	loaded, err := Load(artifact)
	require.NoError(t, err)
	assert.Equal(t, meta.Posts, loaded.Posts)
	assert.Equal(t, meta.ProfileURL, loaded.ProfileURL)
}

func TestExcerpt(t *testing.T) {
	p := PostMetadata{Content: "héllo\nworld of posts"}
	assert.Equal(t, "héllo world of posts", p.Excerpt(100))
	assert.Equal(t, "héllo w...", p.Excerpt(10))
	assert.Equal(t, "hé", p.Excerpt(2))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}
