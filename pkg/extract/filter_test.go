package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"liscraper/pkg/browser"
)

func TestFilterNoiseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps body", "Hello world\nSecond line", "Hello world\nSecond line"},
		{"drops engagement", "Body\n12 likes\n3 comments\nJane reposted\nshared this\nFollowing", "Body"},
		{"keyword match ignores case", "Body\n5 LIKES", "Body"},
		{"drops short time lines", "2 days ago\nBody\n1 hour\n3mo • month", "Body"},
		{"keeps long lines with time words", "We spent the last year rebuilding our pipeline", "We spent the last year rebuilding our pipeline"},
		{"only noise", "5 likes\n1 day", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterNoiseLines(tt.in))
		})
	}
}

func TestFilterNoiseLinesNeverAddsLines(t *testing.T) {
	inputs := []string{
		"a\nb\nc",
		"likes\nfoo\n1 min",
		strings.Repeat("line with a day in it that is long enough\n", 5),
	}
	for _, in := range inputs {
		out := FilterNoiseLines(in)
		for _, line := range strings.Split(out, "\n") {
			if line == "" {
				continue
			}
			assert.Contains(t, in, line)
			assert.False(t, isNoise(line))
		}
	}
}

func TestCountToken(t *testing.T) {
	assert.Equal(t, "1,204", CountToken("1,204 reactions"))
	assert.Equal(t, "1.2K", CountToken("1.2K"))
	assert.Equal(t, "", CountToken("Like"))
}

type stubElement struct {
	browser.Element
	text string
}

func (s stubElement) Text(context.Context) (string, error) { return s.text, nil }

func TestFirstTextOrder(t *testing.T) {
	ctx := context.Background()
	fail := func(context.Context, browser.Element) (string, error) { return "", errors.New("boom") }
	empty := func(context.Context, browser.Element) (string, error) { return "", nil }
	hit := func(context.Context, browser.Element) (string, error) { return "found", nil }
	late := func(context.Context, browser.Element) (string, error) { return "too late", nil }

	got, err := FirstText(ctx, nil, fail, empty, hit, late)
	assert.NoError(t, err)
	assert.Equal(t, "found", got)

	got, err = FirstText(ctx, nil, empty, fail)
	assert.NoError(t, err, "one quiet miss means nothing was found, not a failure")
	assert.Equal(t, "", got)

	_, err = FirstText(ctx, nil, fail, fail)
	assert.Error(t, err)

	got, err = FirstText(ctx, stubElement{text: "  1 min\nReal body  "}, FilteredFullText)
	assert.NoError(t, err)
	assert.Equal(t, "Real body", got)
}

func TestCutAt(t *testing.T) {
	assert.Equal(t, "1w", CutAt("•")("1w • Edited"))
	assert.Equal(t, "Yesterday", CutAt("•")("Yesterday"))
	assert.Equal(t, "Jane Doe 3w", CutAt("•")("Jane Doe\n  3w • Edited"))
}
