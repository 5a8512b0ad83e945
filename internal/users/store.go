// Package users holds the provisioned user table. It is read-only to the
// rest of the system; users are created upstream by editing the users file.
package users

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// User is one provisioned rater or admin.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // sha256 hex digest
	Admin        bool   `yaml:"admin"`
}

// Store is the in-memory user table loaded from the users file.
type Store struct {
	path string

	mu     sync.RWMutex
	order  []string
	byName map[string]User
}

// Load reads the users file. If no user is flagged admin, the first entry is
// promoted.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the users file. On failure the previous table is kept.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read users file: %w", err)
	}

	var list []User
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("failed to parse users file: %w", err)
	}
	if len(list) == 0 {
		return fmt.Errorf("users file %s has no entries", s.path)
	}

	hasAdmin := false
	byName := make(map[string]User, len(list))
	order := make([]string, 0, len(list))
	for i, u := range list {
		if u.Username == "" {
			return fmt.Errorf("users file entry %d has no username", i)
		}
		if _, dup := byName[u.Username]; dup {
			return fmt.Errorf("users file lists %q twice", u.Username)
		}
		if u.Admin {
			hasAdmin = true
		}
		byName[u.Username] = u
		order = append(order, u.Username)
	}
	if !hasAdmin {
		first := byName[order[0]]
		first.Admin = true
		byName[order[0]] = first
	}

	s.mu.Lock()
	s.byName = byName
	s.order = order
	s.mu.Unlock()
	return nil
}

// Verify checks a username/password pair against the table.
func (s *Store) Verify(username, password string) bool {
	s.mu.RLock()
	u, ok := s.byName[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	digest := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(u.PasswordHash)) == 1
}

// Get returns a user by name.
func (s *Store) Get(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	return u, ok
}

// IsAdmin reports whether the named user holds the admin flag.
func (s *Store) IsAdmin(username string) bool {
	u, ok := s.Get(username)
	return ok && u.Admin
}

// Usernames returns all usernames in file order.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// HashPassword returns the hex sha256 digest stored in the users file.
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}
