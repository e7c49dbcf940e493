// Package metadata writes a JSON description next to a canonical artifact.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"liscraper/pkg/models"
)

// PostMetadata is one post with its fingerprint and position.
type PostMetadata struct {
	Position    int               `json:"position"`
	Fingerprint string            `json:"fingerprint"`
	Date        string            `json:"date"`
	Engagement  models.Engagement `json:"engagement"`
	Content     string            `json:"content"`
}

// BatchMetadata summarizes one batch.
type BatchMetadata struct {
	Index      int                       `json:"index"`
	Artifact   string                    `json:"artifact,omitempty"`
	Target     int                       `json:"target"`
	Accepted   int                       `json:"accepted"`
	Pagination models.PaginationExit     `json:"pagination,omitempty"`
	Skipped    map[models.SkipReason]int `json:"skipped,omitempty"`
}

// SessionMetadata describes a finished request.
type SessionMetadata struct {
	ProfileURL   string               `json:"profile_url"`
	ProfileLabel string               `json:"profile_label"`
	Requested    int                  `json:"requested"`
	Collected    int                  `json:"collected"`
	State        models.TerminalState `json:"state"`
	Canonical    string               `json:"canonical"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	Batches      []BatchMetadata      `json:"batches"`
	Posts        []PostMetadata       `json:"posts"`
}

// FromSession builds metadata for s, whose canonical artifact holds posts.
func FromSession(s models.ScrapeSession, posts []models.Post, started time.Time) *SessionMetadata {
	meta := &SessionMetadata{
		ProfileURL:   s.ProfileURL,
		ProfileLabel: s.ProfileLabel,
		Requested:    s.RequestedTotal,
		Collected:    len(posts),
		State:        s.Terminal(),
		Canonical:    filepath.Base(s.CanonicalPath),
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Batches:      make([]BatchMetadata, 0, len(s.Batches)),
		Posts:        make([]PostMetadata, 0, len(posts)),
	}

	for _, b := range s.Batches {
		meta.Batches = append(meta.Batches, BatchMetadata{
			Index:      b.Index,
			Artifact:   filepath.Base(b.ArtifactPath),
			Target:     b.Target,
			Accepted:   b.Accepted,
			Pagination: b.Pagination,
			Skipped:    b.Skipped,
		})
	}
	for i, p := range posts {
		meta.Posts = append(meta.Posts, PostMetadata{
			Position:    i + 1,
			Fingerprint: p.Fingerprint(),
			Date:        p.Date,
			Engagement:  p.Engagement,
			Content:     p.Content,
		})
	}
	return meta
}

// PathFor returns the sidecar location for an artifact.
func PathFor(artifactPath string) string {
	return artifactPath + ".json"
}

// Save writes the metadata next to artifactPath.
func (m *SessionMetadata) Save(artifactPath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(PathFor(artifactPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads the sidecar of artifactPath.
func Load(artifactPath string) (*SessionMetadata, error) {
	data, err := os.ReadFile(PathFor(artifactPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Exists checks if a sidecar exists for artifactPath.
func Exists(artifactPath string) bool {
	_, err := os.Stat(PathFor(artifactPath))
	return err == nil
}

// Excerpt returns the first maxLength runes of the post on one line.
func (p PostMetadata) Excerpt(maxLength int) string {
	runes := []rune(p.Content)
	for i, r := range runes {
		if r == '\n' {
			runes[i] = ' '
		}
	}
	if len(runes) <= maxLength {
		return string(runes)
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
