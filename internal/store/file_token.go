package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// FilePermission is the permission for token files
const FilePermission = 0o600

type TokenData struct {
	Token *oauth2.Token `json:"token"`
}

// FileTokenStore keeps the single OAuth token as JSON on disk.
type FileTokenStore struct {
	path  string
	mutex sync.Mutex
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns the stored token, or nil when no token has been saved yet.
func (s *FileTokenStore) Load(_ context.Context) (*oauth2.Token, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}

	return tokenData.Token, nil
}

// Save replaces the stored token. The file is written next to the target and
// renamed so readers never observe a partial write.
func (s *FileTokenStore) Save(_ context.Context, token *oauth2.Token) error {
	if token == nil {
		return errors.New("refusing to save nil token")
	}

	data, err := json.MarshalIndent(TokenData{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(FilePermission); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Close is a no-op; it lets FileTokenStore share the SQLite store's lifecycle.
func (s *FileTokenStore) Close() error {
	return nil
}
