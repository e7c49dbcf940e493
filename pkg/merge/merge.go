// Package merge combines batch artifacts into one canonical artifact.
package merge

import (
	"fmt"
	"time"

	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/storage"
)

// Combine concatenates the posts of artifacts in order. The result carries
// label and at; numbering follows from position when it is encoded.
func Combine(label string, at time.Time, artifacts ...storage.Artifact) storage.Artifact {
	total := 0
	for _, a := range artifacts {
		total += len(a.Posts)
	}

	posts := make([]models.Post, 0, total)
	for _, a := range artifacts {
		posts = append(posts, a.Posts...)
	}
	return storage.Artifact{Label: label, ExtractedAt: at, Posts: posts}
}

// Saver persists a combined artifact.
type Saver interface {
	SaveCombined(a storage.Artifact) (string, error)
}

// Assembler re-reads batch artifacts from disk and writes the merged file.
type Assembler struct {
	saver  Saver
	logger logger.Logger
	now    func() time.Time
}

// NewAssembler creates an assembler writing through saver.
func NewAssembler(saver Saver, log logger.Logger) *Assembler {
	return &Assembler{saver: saver, logger: log, now: time.Now}
}

// Merge parses every file in paths, in order, and writes their combination
// under label. Nothing is written if any file fails to parse.
func (a *Assembler) Merge(paths []string, label string) (string, storage.Artifact, error) {
	if len(paths) == 0 {
		return "", storage.Artifact{}, fmt.Errorf("no artifacts to merge")
	}

	parts := make([]storage.Artifact, 0, len(paths))
	for _, path := range paths {
		part, err := storage.ParseFile(path)
		if err != nil {
			return "", storage.Artifact{}, fmt.Errorf("failed to read batch artifact: %w", err)
		}
		a.logger.DebugWithFields("Read batch artifact", map[string]interface{}{
			"path":  path,
			"posts": len(part.Posts),
		})
		parts = append(parts, part)
	}

	if label == "" {
		label = parts[0].Label
	}
	combined := Combine(label, a.now(), parts...)

	path, err := a.saver.SaveCombined(combined)
	if err != nil {
		return "", storage.Artifact{}, err
	}

	a.logger.InfoWithFields("Merged batch artifacts", map[string]interface{}{
		"batches": len(paths),
		"posts":   len(combined.Posts),
		"path":    path,
	})
	return path, combined, nil
}
