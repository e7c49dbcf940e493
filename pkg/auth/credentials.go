package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Account is a LinkedIn login
type Account struct {
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	Default      bool      `json:"default,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is implemented by every place logins can live
type CredentialStore interface {
	// Store saves or replaces the login for account.Email
	Store(account *Account) error

	// Retrieve gets the login for email
	Retrieve(email string) (*Account, error)

	// List returns all stored logins
	List() ([]*Account, error)

	// Delete removes the login for email
	Delete(email string) error

	// Exists checks if a login is stored for email
	Exists(email string) bool
}

// Manager looks logins up across several stores, first match wins
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager backed by the system keychain when available,
// an encrypted file, and finally the environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves account in the first store that accepts it. The first login
// ever stored becomes the default.
func (m *Manager) Store(account *Account) error {
	if account == nil || strings.TrimSpace(account.Email) == "" {
		return errors.New("email is required")
	}
	if account.Password == "" {
		return errors.New("password is required")
	}
	account.Email = strings.TrimSpace(account.Email)
	account.LastModified = time.Now()

	if existing, _ := m.List(); len(existing) == 0 {
		account.Default = true
	}

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the login for email from the first store that has it
func (m *Manager) Retrieve(email string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(email); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, email)
}

// RetrieveDefault returns the environment login if set, else the account
// marked default, else the first stored account.
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.Default {
			return account, nil
		}
	}
	if len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// Resolve picks the login for a run: explicit values win, then the stored
// login for email, then the default.
func (m *Manager) Resolve(email, password string) (*Account, error) {
	if email != "" && password != "" {
		return &Account{Email: email, Password: password}, nil
	}
	if email != "" {
		return m.Retrieve(email)
	}
	return m.RetrieveDefault()
}

// SetDefault marks email as the default login and clears the flag elsewhere
func (m *Manager) SetDefault(email string) error {
	target, err := m.Retrieve(email)
	if err != nil {
		return err
	}

	accounts, err := m.List()
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if account.Default && account.Email != target.Email {
			account.Default = false
			if err := m.restore(account); err != nil {
				return err
			}
		}
	}

	target.Default = true
	return m.restore(target)
}

// restore writes account back without touching its timestamp
func (m *Manager) restore(account *Account) error {
	var lastErr error
	for _, store := range m.stores {
		if !store.Exists(account.Email) {
			continue
		}
		if err := store.Store(account); err != nil && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}
	return lastErr
}

// List returns every stored login sorted by email. When several stores hold
// the same email the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byEmail := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byEmail[account.Email]; !ok || account.LastModified.After(existing.LastModified) {
				byEmail[account.Email] = account
			}
		}
	}

	result := make([]*Account, 0, len(byEmail))
	for _, account := range byEmail {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// Delete removes the login for email from all stores
func (m *Manager) Delete(email string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(email); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, email)
	}
	return nil
}

// DeleteAll removes all stored logins
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	for _, account := range accounts {
		_ = m.Delete(account.Email)
	}
	return nil
}

func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "liscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "liscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "liscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "liscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount returns a copy of account safe to print
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	return &Account{
		Email:        account.Email,
		Password:     maskString(account.Password),
		Default:      account.Default,
		LastModified: account.LastModified,
	}
}

// maskString hides everything but the first and last two characters
func maskString(s string) string {
	if len(s) <= 6 {
		return "********"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
