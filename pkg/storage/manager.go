package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

const (
	batchMarker    = "_linkedin_posts_"
	combinedMarker = "_all_batches_"
	fileStampFmt   = "20060102_150405"
)

// Manager writes artifacts into one output directory.
type Manager struct {
	outputDir string
	logger    logger.Logger
	now       func() time.Time
	writeFile func(path string, data []byte) error

	mu      sync.Mutex
	written []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for headers and file names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager, creating outputDir if needed.
func NewManager(outputDir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		logger:    logger.NewNopLogger(),
		now:       time.Now,
		writeFile: atomicWrite,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SaveBatch writes one batch's posts and returns the artifact path.
func (m *Manager) SaveBatch(label string, posts []models.Post) (string, error) {
	at := m.now()
	a := Artifact{Label: label, ExtractedAt: at, Posts: posts}
	return m.save(m.pathFor(label, batchMarker, at), a)
}

// SaveCombined writes a merged artifact and returns its path.
func (m *Manager) SaveCombined(a Artifact) (string, error) {
	if a.ExtractedAt.IsZero() {
		a.ExtractedAt = m.now()
	}
	return m.save(m.pathFor(a.Label, combinedMarker, a.ExtractedAt), a)
}

// save writes the full layout and falls back to the ASCII layout when the
// text is not valid UTF-8 or the first write fails.
func (m *Manager) save(path string, a Artifact) (string, error) {
	if validUTF8(a) {
		err := m.writeFile(path, []byte(Encode(a)))
		if err == nil {
			m.record(path)
			return path, nil
		}
		m.logger.WithError(err).WithField("path", path).Warn("Failed to write artifact, retrying with ASCII fallback")
	} else {
		m.logger.WithField("path", path).Warn("Artifact text is not valid UTF-8, using ASCII fallback")
	}

	if err := m.writeFile(path, []byte(EncodeFallback(a))); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	m.record(path)
	return path, nil
}

func (m *Manager) record(path string) {
	m.mu.Lock()
	m.written = append(m.written, path)
	m.mu.Unlock()
	m.logger.WithField("path", path).Info("Artifact saved")
}

// pathFor builds a file name that does not collide with an existing file.
func (m *Manager) pathFor(label, marker string, at time.Time) string {
	base := SanitizeLabel(label) + marker + at.Format(fileStampFmt)
	path := filepath.Join(m.outputDir, base+".txt")
	for i := 2; fileExists(path); i++ {
		path = filepath.Join(m.outputDir, fmt.Sprintf("%s_%d.txt", base, i))
	}
	return path
}

// Written returns the paths saved by this manager, oldest first.
func (m *Manager) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

// BatchArtifacts lists the batch files in the output directory for label,
// oldest first.
func (m *Manager) BatchArtifacts(label string) ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	prefix := SanitizeLabel(label) + batchMarker
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".txt" || !strings.HasPrefix(name, prefix) {
			continue
		}
		paths = append(paths, filepath.Join(m.outputDir, name))
	}
	// The timestamp in the name sorts lexically.
	sort.Strings(paths)
	return paths, nil
}

// OutputDir returns the output directory path.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SanitizeLabel makes label safe to use in a file name.
func SanitizeLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	label = strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '/', '\\', 0:
			return -1
		}
		return r
	}, label)
	if label == "" || label == "." || label == ".." {
		return linkedin.FallbackLabel
	}
	return label
}

func validUTF8(a Artifact) bool {
	if !utf8.ValidString(a.Label) {
		return false
	}
	for _, p := range a.Posts {
		for _, s := range []string{p.Content, p.Date, p.Engagement.Likes, p.Engagement.Comments, p.Engagement.Shares} {
			if !utf8.ValidString(s) {
				return false
			}
		}
	}
	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// atomicWrite writes data next to path and renames it into place.
func atomicWrite(path string, data []byte) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
