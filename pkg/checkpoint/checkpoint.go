package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

const (
	currentVersion = 1
	fileSuffix     = ".checkpoint.json"
)

// Checkpoint is a persisted scrape session
type Checkpoint struct {
	Session   models.ScrapeSession `json:"session"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Version   int                  `json:"version"`
}

// FromSession wraps s in a new checkpoint
func FromSession(s models.ScrapeSession) *Checkpoint {
	now := time.Now()
	return &Checkpoint{Session: s, CreatedAt: now, UpdatedAt: now, Version: currentVersion}
}

// ToSession returns the stored session
func (cp *Checkpoint) ToSession() models.ScrapeSession {
	return cp.Session
}

// Summary describes a checkpoint for listings
type Summary struct {
	Path         string
	ProfileURL   string
	ProfileLabel string
	Requested    int
	Collected    int
	Batches      int
	State        models.TerminalState
	UpdatedAt    time.Time
}

func (cp *Checkpoint) summary(path string) Summary {
	s := cp.Session
	return Summary{
		Path:         path,
		ProfileURL:   s.ProfileURL,
		ProfileLabel: s.ProfileLabel,
		Requested:    s.RequestedTotal,
		Collected:    s.Offset,
		Batches:      len(s.Batches),
		State:        s.Terminal(),
		UpdatedAt:    cp.UpdatedAt,
	}
}

// Manager handles the checkpoint of one profile
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a manager for profileURL in the user data directory
func NewManager(profileURL string) (*Manager, error) {
	dir, err := Directory()
	if err != nil {
		return nil, err
	}
	return NewManagerIn(dir, profileURL)
}

// NewManagerIn creates a manager for profileURL that keeps its file in dir
func NewManagerIn(dir, profileURL string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &Manager{
		checkpointPath: filepath.Join(dir, FileName(profileURL)),
		logger:         logger.GetLogger(),
	}, nil
}

// FileName returns the checkpoint file name for profileURL
func FileName(profileURL string) string {
	slug := linkedin.ProfileSlug(profileURL)
	if linkedin.IsCompany(profileURL) {
		slug = "company_" + slug
	}
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, slug)
	if strings.Trim(slug, "._") == "" {
		slug = "profile"
	}
	return slug + fileSuffix
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create writes a first checkpoint for s
func (m *Manager) Create(s models.ScrapeSession) (*Checkpoint, error) {
	cp := FromSession(s)
	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"profile": s.ProfileURL,
		"path":    m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint. It returns nil without error when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	cp, err := readCheckpoint(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"profile":   cp.Session.ProfileURL,
		"collected": cp.Session.Offset,
		"batches":   len(cp.Session.Batches),
		"updated":   cp.UpdatedAt,
	})
	return cp, nil
}

func readCheckpoint(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, currentVersion)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	if cp.Version == 0 {
		cp.Version = currentVersion
	}

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"profile":   cp.Session.ProfileURL,
		"collected": cp.Session.Offset,
		"batches":   len(cp.Session.Batches),
	})
	return nil
}

// Update stores s in cp and saves it
func (m *Manager) Update(cp *Checkpoint, s models.ScrapeSession) error {
	cp.Session = s
	return m.Save(cp)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Info summarizes the checkpoint, or returns nil if there is none
func (m *Manager) Info() (*Summary, error) {
	cp, err := m.Load()
	if err != nil || cp == nil {
		return nil, err
	}
	s := cp.summary(m.checkpointPath)
	return &s, nil
}

// Backup copies the checkpoint next to itself with a .backup suffix
func (m *Manager) Backup() error {
	if !m.Exists() {
		return nil
	}

	src, err := os.Open(m.checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.checkpointPath + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	m.logger.Debug("Checkpoint backed up")
	return nil
}

// List summarizes every checkpoint in dir, most recently updated first.
// Unreadable files are skipped.
func List(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cp, err := readCheckpoint(path)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("path", path).Warn("Skipping unreadable checkpoint")
			continue
		}
		out = append(out, cp.summary(path))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Directory returns the checkpoints directory for the current OS
func Directory() (string, error) {
	dataDir, err := dataDirectory()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, "checkpoints"), nil
}

func dataDirectory() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "liscraper"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "liscraper"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "liscraper"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "liscraper"), nil
	}
}
