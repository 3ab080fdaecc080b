package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/shared"
)

const (
	configDirName = "spotitui"
	tokenFileName = "token.json"
)

// TokenStore persists the cached OAuth token to a single file it
// exclusively owns.
type TokenStore struct {
	path   string
	logger *log.Logger
}

// DefaultTokenStore returns a TokenStore using the default location,
// ~/.config/spotitui/token.json (platform equivalent via [os.UserConfigDir]).
func DefaultTokenStore(logger *log.Logger) (*TokenStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user config dir: %w", err)
	}

	return NewTokenStore(filepath.Join(configDir, configDirName, tokenFileName), logger), nil
}

// NewTokenStore creates a TokenStore with a custom path.
func NewTokenStore(path string, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{path: path, logger: logger}
}

// Path returns the file path where the token is stored.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the persisted token. A missing or corrupt file yields nil;
// the caller falls back to an interactive login rather than failing.
func (s *TokenStore) Load() *Token {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read token cache", "path", s.path, "error", err)
		}
		return nil
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		s.logger.Warn("discarding corrupt token cache", "path", s.path, "error", err)
		return nil
	}

	return &token
}

// Save writes the token atomically (temp file + rename), creating the
// containing directory if absent and overwriting any prior token.
func (s *TokenStore) Save(token *Token) error {
	if token == nil {
		return fmt.Errorf("%w: cannot save nil token", shared.ErrInvalidArgument)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tokenFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Clear removes the persisted token. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
