package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// Session is a signed-in user.
type Session struct {
	UserID       string    `yaml:"user_id" json:"userId"`
	Email        string    `yaml:"email" json:"email"`
	Name         string    `yaml:"name" json:"name"`
	PhotoURL     string    `yaml:"photo_url,omitempty" json:"photoURL,omitempty"`
	IDToken      string    `yaml:"id_token" json:"-"`
	RefreshToken string    `yaml:"refresh_token,omitempty" json:"-"`
	ExpiresAt    time.Time `yaml:"expires_at" json:"expiresAt"`
}

// Expired reports whether the ID token has expired at now. A zero ExpiresAt
// never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// claims are the profile fields carried by provider ID tokens.
type claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// ParseSession decodes an ID token into a Session. The signature is not
// verified.
func ParseSession(idToken string) (*Session, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrInvalidToken)
	}

	s := &Session{
		UserID:   c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		PhotoURL: c.Picture,
		IDToken:  idToken,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.UTC()
	}
	return s, nil
}

// SessionStore persists the current session.
type SessionStore interface {
	// Load returns the stored session or ErrNotSignedIn.
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// Compile-time interface guards.
var (
	_ SessionStore = (*FileSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)

// FileSessionStore keeps the session in a YAML file readable only by the
// owner.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore returns a store writing to path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (f *FileSessionStore) Load() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	if s.IDToken == "" {
		return nil, ErrNotSignedIn
	}
	return &s, nil
}

func (f *FileSessionStore) Save(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the session in memory. It backs the view server
// and disabled session persistence.
type MemorySessionStore struct {
	mu sync.Mutex
	s  *Session
}

func (m *MemorySessionStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, ErrNotSignedIn
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemorySessionStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
