package auth

import (
	"os"
	"time"
)

const (
	EnvEmail      = "LISCRAPER_EMAIL"
	EnvPassword   = "LISCRAPER_PASSWORD"
	EnvPassphrase = "LISCRAPER_PASSPHRASE"
)

// EnvironmentStore reads a single login from LISCRAPER_EMAIL and
// LISCRAPER_PASSWORD. It is read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment login. An empty email matches it; any
// other email must equal LISCRAPER_EMAIL.
func (e *EnvironmentStore) Retrieve(email string) (*Account, error) {
	envEmail := os.Getenv(EnvEmail)
	password := os.Getenv(EnvPassword)
	if envEmail == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if email != "" && email != envEmail {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Email:        envEmail,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(email string) bool {
	_, err := e.Retrieve(email)
	return err == nil
}
