package linkedin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/browser"
)

func TestFeedURL(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"https://www.linkedin.com/in/jane-doe/", "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane-doe", "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/company/acme/", "https://www.linkedin.com/company/acme/posts"},
		{"jane-doe", "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
	}

	for _, tt := range tests {
		got, err := FeedURL(tt.ref)
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
	}

	_, err := FeedURL("  ")
	assert.Error(t, err)
}

func TestProfileSlug(t *testing.T) {
	assert.Equal(t, "jane-doe", ProfileSlug("https://www.linkedin.com/in/jane-doe/"))
	assert.Equal(t, "acme", ProfileSlug("https://www.linkedin.com/company/acme"))
	assert.Equal(t, "bob", ProfileSlug("bob"))
}

func TestLabelFromSlug(t *testing.T) {
	assert.Equal(t, "Jane Doe", LabelFromSlug("https://www.linkedin.com/in/jane-doe/"))
	assert.Equal(t, FallbackLabel, LabelFromSlug(""))
}

func TestResolveProfileLabel(t *testing.T) {
	ctx := context.Background()

	page := []byte(`<html><body>
<h1 class="top-card-layout__title">  Jane Q. Doe </h1>
<h1 class="org-top-card-summary__title">Acme Corp</h1>
</body></html>`)
	snap, err := browser.NewSnapshot(page, browser.DefaultSnapshotOptions())
	require.NoError(t, err)

	assert.Equal(t, "Jane Q. Doe", ResolveProfileLabel(ctx, snap, "https://www.linkedin.com/in/jane-doe"))
	assert.Equal(t, "Acme Corp", ResolveProfileLabel(ctx, snap, "https://www.linkedin.com/company/acme"))

	split, err := browser.NewSnapshot([]byte(`<html><body>
<h1 class="top-card-layout__title"><span>Jane</span>
<span>Doe</span><br>
</h1>
</body></html>`), browser.DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", ResolveProfileLabel(ctx, split, "https://www.linkedin.com/in/jane-doe"))

	empty, err := browser.NewSnapshot([]byte(`<html><body></body></html>`), browser.DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", ResolveProfileLabel(ctx, empty, "https://www.linkedin.com/in/jane-doe"))
}

func TestItemQuery(t *testing.T) {
	assert.Equal(t, CompanyItems, ItemQuery("https://www.linkedin.com/company/acme/posts"))
	assert.Equal(t, ProfileItems, ItemQuery("https://www.linkedin.com/in/jane-doe/recent-activity/all/"))
	assert.Equal(t, ProfileItems, ItemQuery(""))
}
