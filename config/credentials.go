package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CredentialStore manages the per-model bearer credentials, kept out of the
// main config file in a 0600 credentials.toml in the data directory.
type CredentialStore struct {
	credentials map[string]string // route id → API key
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		credentials: make(map[string]string),
	}
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

// Load reads credentials from disk. A missing file is not an error and
// leaves the store empty.
func (c *CredentialStore) Load(dataDir string) error {
	path := credentialsPath(dataDir)
	if !FileExists(path) {
		c.credentials = make(map[string]string)
		return nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if cf.Credentials == nil {
		cf.Credentials = make(map[string]string)
	}
	c.credentials = cf.Credentials
	return nil
}

// Save writes credentials to disk with 0600 permissions.
func (c *CredentialStore) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: c.credentials}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

// Get retrieves the credential for a route id, empty when unset.
func (c *CredentialStore) Get(routeID string) string {
	return c.credentials[routeID]
}

// Set stores the credential for a route id.
func (c *CredentialStore) Set(routeID, apiKey string) {
	c.credentials[routeID] = apiKey
}

// Delete removes the credential for a route id.
func (c *CredentialStore) Delete(routeID string) {
	delete(c.credentials, routeID)
}
