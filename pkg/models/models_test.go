package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostDefaults(t *testing.T) {
	p, ok := NewPost("hello", "", Engagement{Likes: "3"})
	require.True(t, ok)
	assert.Equal(t, UnknownDate, p.Date)
	assert.Equal(t, Engagement{Likes: "3", Comments: "0", Shares: "0"}, p.Engagement)

	_, ok = NewPost("", "1d", DefaultEngagement())
	assert.False(t, ok, "empty content must be rejected")
}

func TestNewPostNormalisesLineEndings(t *testing.T) {
	p, ok := NewPost("line one\r\nline two\rline three", "1d", DefaultEngagement())
	require.True(t, ok)
	assert.Equal(t, "line one\nline two\nline three", p.Content)
}

func TestFingerprintIsWhitespaceSensitive(t *testing.T) {
	assert.Equal(t, Fingerprint("a b"), Post{Content: "a b"}.Fingerprint())
	assert.NotEqual(t, Fingerprint("a b"), Fingerprint("a  b"))
	assert.Len(t, Fingerprint("x"), 32)
}

func TestNewBatchResultBookkeeping(t *testing.T) {
	tests := []struct {
		name         string
		requested    int
		offset       int
		target       int
		accepted     int
		cumulative   int
		remaining    int
		continuation bool
	}{
		{"first of two", 45, 0, 30, 30, 30, 15, true},
		{"second of two", 45, 30, 15, 15, 45, 0, false},
		{"overshoot clamps", 10, 8, 2, 5, 13, 0, false},
		{"underfilled", 45, 0, 30, 12, 12, 33, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := make([]Post, tt.accepted)
			b := NewBatchResult(tt.requested, tt.offset, tt.target, posts)
			assert.Equal(t, tt.accepted, b.Accepted)
			assert.Equal(t, tt.cumulative, b.Cumulative)
			assert.Equal(t, tt.remaining, b.Remaining)
			assert.Equal(t, tt.continuation, b.Continuation)
		})
	}
}

func TestSessionWithBatchDoesNotMutate(t *testing.T) {
	s := NewSession("https://www.linkedin.com/in/jane", 45, 30)
	assert.Equal(t, 30, s.NextTarget())

	b1 := NewBatchResult(45, s.Offset, s.NextTarget(), make([]Post, 30))
	s1 := s.WithBatch(b1)

	assert.Equal(t, 0, s.Offset)
	assert.Empty(t, s.Batches)
	assert.Equal(t, 30, s1.Offset)
	assert.Equal(t, 1, s1.Batches[0].Index)
	assert.Equal(t, 15, s1.NextTarget())
	assert.False(t, s1.Done())

	b2 := NewBatchResult(45, s1.Offset, s1.NextTarget(), make([]Post, 15))
	s2 := s1.WithBatch(b2)

	assert.Len(t, s1.Batches, 1)
	assert.Equal(t, b1.Cumulative, s2.Batches[1].Cumulative-b2.Accepted, "cumulative of batch k is the offset of batch k+1")
	assert.True(t, s2.Done())
	assert.Equal(t, StateComplete, s2.Terminal())
}

func TestSessionStall(t *testing.T) {
	s := NewSession("https://www.linkedin.com/in/jane", 45, 30)
	s = s.WithBatch(NewBatchResult(45, 0, 30, make([]Post, 30)))
	s = s.WithBatch(NewBatchResult(45, 30, 15, nil))

	assert.True(t, s.Stalled)
	assert.True(t, s.Done())
	assert.Equal(t, StateStalled, s.Terminal())
	assert.Equal(t, 30, s.Offset)
}

func TestSessionFingerprintsAreCopied(t *testing.T) {
	fps := []string{"a", "b"}
	s := NewSession("u", 1, 1).WithFingerprints(fps)
	fps[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, s.Fingerprints)
}
