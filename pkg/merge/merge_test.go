package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/storage"
)

var at = time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

func posts(prefix string, n int) []models.Post {
	out := make([]models.Post, n)
	for i := range out {
		out[i] = models.Post{
			Content:    fmt.Sprintf("%s post %d", prefix, i+1),
			Date:       "1w",
			Engagement: models.Engagement{Likes: "1", Comments: "0", Shares: "0"},
		}
	}
	return out
}

func TestCombineIsAssociative(t *testing.T) {
	b1 := storage.Artifact{Label: "J", Posts: posts("a", 3)}
	b2 := storage.Artifact{Label: "J", Posts: posts("b", 2)}
	b3 := storage.Artifact{Label: "J", Posts: posts("c", 4)}

	all := Combine("J", at, b1, b2, b3)
	stepwise := Combine("J", at, Combine("J", at, b1, b2), b3)

	if diff := cmp.Diff(all, stepwise); diff != "" {
		t.Errorf("combine is not associative (-all +stepwise):\n%s", diff)
	}
	assert.Len(t, all.Posts, 9)
	assert.Equal(t, "a post 1", all.Posts[0].Content)
	assert.Equal(t, "c post 4", all.Posts[8].Content)
}

func TestCombineDoesNotAliasInputs(t *testing.T) {
	b1 := storage.Artifact{Posts: posts("a", 2)}
	out := Combine("J", at, b1)
	out.Posts[0].Content = "changed"
	assert.Equal(t, "a post 1", b1.Posts[0].Content)
}

func TestMergeRenumbersContiguously(t *testing.T) {
	dir := t.TempDir()
	m, err := storage.NewManager(dir)
	require.NoError(t, err)

	first, err := m.SaveBatch("Jane Doe", posts("first", 12))
	require.NoError(t, err)
	second, err := m.SaveBatch("Jane Doe", posts("second", 8))
	require.NoError(t, err)

	path, combined, err := NewAssembler(m, logger.NewNopLogger()).Merge([]string{first, second}, "Jane Doe")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "Jane_Doe_all_batches_"))
	assert.Len(t, combined.Posts, 20)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Number of posts: 20\n")
	for i := 1; i <= 20; i++ {
		assert.Contains(t, text, fmt.Sprintf("Post #%d\n", i))
	}
	assert.NotContains(t, text, "Post #21\n")

	reread, err := storage.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second post 8", reread.Posts[19].Content)
}

func TestMergeDefaultsLabelFromFirstArtifact(t *testing.T) {
	m, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	p, err := m.SaveBatch("Acme", posts("x", 1))
	require.NoError(t, err)

	_, combined, err := NewAssembler(m, logger.NewNopLogger()).Merge([]string{p}, "")
	require.NoError(t, err)
	assert.Equal(t, "Acme", combined.Label)
}

func TestMergeFailsOnUnreadableArtifact(t *testing.T) {
	dir := t.TempDir()
	m, err := storage.NewManager(dir)
	require.NoError(t, err)
	good, err := m.SaveBatch("J", posts("x", 1))
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("not an artifact\n"), 0644))

	_, _, err = NewAssembler(m, logger.NewNopLogger()).Merge([]string{good, bad}, "J")
	assert.ErrorIs(t, err, storage.ErrMalformed)
	assert.Len(t, m.Written(), 1)

	_, _, err = NewAssembler(m, logger.NewNopLogger()).Merge(nil, "J")
	assert.Error(t, err)
}
