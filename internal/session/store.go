// Package session persists the logged-in session as a TOML file so a
// restart inside the validity window skips the login screen.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/teknos/oncolly/internal/app"
	"github.com/teknos/oncolly/internal/domain"
)

// fileRecord is the on-disk session shape.
type fileRecord struct {
	Token      string    `toml:"token"`
	UserID     string    `toml:"user_id"`
	Role       string    `toml:"role"`
	LoggedInAt time.Time `toml:"logged_in_at"`
}

// FileStore reads and writes one session file.
type FileStore struct {
	path string
}

// NewFileStore constructs a store at the given path.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session path must not be empty")
	}
	return &FileStore{path: path}, nil
}

// Save writes the session, creating the parent directory when needed. The
// file holds a bearer token so it is written owner-only.
func (s *FileStore) Save(sess app.Session) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	content, err := toml.Marshal(fileRecord{
		Token:      sess.Token,
		UserID:     sess.UserID,
		Role:       string(sess.Role),
		LoggedInAt: sess.LoggedInAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, content, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load reads the persisted session. A missing or unreadable file reports
// ok=false rather than an error so a corrupt file degrades to a fresh login.
func (s *FileStore) Load() (app.Session, bool, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return app.Session{}, false, nil
		}
		return app.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	var rec fileRecord
	if err := toml.Unmarshal(content, &rec); err != nil {
		return app.Session{}, false, nil
	}
	if strings.TrimSpace(rec.Token) == "" || strings.TrimSpace(rec.UserID) == "" {
		return app.Session{}, false, nil
	}
	return app.Session{
		Token:      rec.Token,
		UserID:     rec.UserID,
		Role:       domain.ParseRole(rec.Role),
		LoggedInAt: rec.LoggedInAt,
	}, true, nil
}

// Clear removes the session file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
