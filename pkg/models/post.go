package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// UnknownDate is the date label used when a post carries no readable timestamp.
const UnknownDate = "Unknown date"

// Engagement holds the social counters shown under a post. Values are kept as
// the page renders them ("12", "1.2K") and default to "0".
type Engagement struct {
	Likes    string `json:"likes"`
	Comments string `json:"comments"`
	Shares   string `json:"shares"`
}

// DefaultEngagement returns an Engagement with every counter set to "0".
func DefaultEngagement() Engagement {
	return Engagement{Likes: "0", Comments: "0", Shares: "0"}
}

// IsDefault reports whether no counter was discovered.
func (e Engagement) IsDefault() bool {
	return e == DefaultEngagement()
}

// Post is one extracted feed item.
type Post struct {
	Content    string     `json:"content"`
	Date       string     `json:"date"`
	Engagement Engagement `json:"engagement"`
}

// NewPost builds a Post, filling in defaults for missing fields. Line
// endings in content are normalised to "\n".
// It returns false when content is empty.
func NewPost(content, date string, engagement Engagement) (Post, bool) {
	content = lineEndings.Replace(content)
	if content == "" {
		return Post{}, false
	}
	if date == "" {
		date = UnknownDate
	}
	if engagement.Likes == "" {
		engagement.Likes = "0"
	}
	if engagement.Comments == "" {
		engagement.Comments = "0"
	}
	if engagement.Shares == "" {
		engagement.Shares = "0"
	}
	return Post{Content: content, Date: date, Engagement: engagement}, true
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Fingerprint returns the content hash used for duplicate detection.
func (p Post) Fingerprint() string {
	return Fingerprint(p.Content)
}

// Fingerprint hashes content exactly as given, without normalisation.
func Fingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SkipReason explains why a feed item produced no post.
type SkipReason string

const (
	SkipReposted  SkipReason = "reposted"
	SkipNoContent SkipReason = "no_content"
	SkipDuplicate SkipReason = "duplicate"
)

// SkipReasons lists every SkipReason in reporting order.
var SkipReasons = []SkipReason{SkipReposted, SkipNoContent, SkipDuplicate}
