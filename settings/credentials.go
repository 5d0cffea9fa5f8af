// Package settings stores per-user xcstrans credentials.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/xcstrans/auth.json  (default: ~/.local/share/xcstrans/)
//
// The file is a JSON object keyed by provider ID. It is written with 0600
// permissions.
//
// Lookup order for API keys:
//  1. --api-key flag
//  2. XCSTRANS_API_KEY environment variable (or .env)
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName = "xcstrans"
	fileName    = "auth.json"
)

// Credential is what is stored for one provider.
type Credential struct {
	Key string `json:"key,omitempty"`
	// BaseURL is the endpoint of a custom OpenAI-compatible provider.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Credential

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the xcstrans data directory. Respects $XDG_DATA_HOME.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json path for display.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store. A missing or unreadable file yields an
// empty store.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Access
// ---------------------------------------------------------------------------

// Get returns the credential for a provider, or nil.
func Get(providerID string) *Credential {
	return Load()[providerID]
}

// Set stores a credential for a provider, replacing any existing one.
func Set(providerID string, c *Credential) error {
	store := Load()
	store[providerID] = c
	return Save(store)
}

// Remove deletes the credential for a provider. Removing an unknown
// provider is not an error.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// RemoveAll deletes the credential file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// Providers returns the IDs with stored credentials, sorted.
func (s Store) Providers() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// APIKey returns explicit when set, else the stored key for providerID.
// explicit carries the flag and environment layers.
func APIKey(providerID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c := Get(providerID); c != nil {
		return c.Key
	}
	return ""
}

// BaseURL returns explicit when set, else the stored base URL.
func BaseURL(providerID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c := Get(providerID); c != nil {
		return c.BaseURL
	}
	return ""
}

// MaskKey returns a masked key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
