// Package assignment resolves which report cases belong to which user.
package assignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
)

// ErrUnknownUser indicates a user with no assignment entry ("not
// provisioned").
var ErrUnknownUser = errors.New("user has no assignment")

// entry is one user's record in the assignments file. An empty Cases list
// means the whole collection in file order.
type entry struct {
	Collection string   `json:"collection"`
	Cases      []string `json:"cases,omitempty"`
}

type userAssignment struct {
	collection string
	cases      []string
}

// Store is a read-only mapping from username to an ordered case list. It is
// loaded once at startup and validated against the catalog: every referenced
// case must resolve, and no case may appear twice for the same user.
type Store struct {
	path    string
	catalog *catalog.Catalog

	mu     sync.RWMutex
	byUser map[string]userAssignment
}

// Load reads the assignments file and cross-validates it against the
// catalog. A case id that does not resolve aborts the load with
// catalog.ErrMissingCase rather than being skipped, since silent skipping
// would corrupt progress totals.
func Load(path string, cat *catalog.Catalog) (*Store, error) {
	s := &Store{path: path, catalog: cat}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the assignments file. On failure the previous mapping is
// kept.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read assignments file: %w", err)
	}

	var entries map[string]entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse assignments file: %w", err)
	}

	byUser := make(map[string]userAssignment, len(entries))
	for username, e := range entries {
		if e.Collection == "" {
			return fmt.Errorf("assignment for %q has no collection", username)
		}

		col, err := s.catalog.Load(e.Collection)
		if err != nil {
			return fmt.Errorf("assignment for %q: %w", username, err)
		}

		cases := e.Cases
		if len(cases) == 0 {
			cases = col.CaseIDs()
		} else {
			seen := make(map[string]struct{}, len(cases))
			for _, caseID := range cases {
				if _, dup := seen[caseID]; dup {
					return fmt.Errorf("assignment for %q lists case %q twice", username, caseID)
				}
				seen[caseID] = struct{}{}
				if !col.Has(caseID) {
					return fmt.Errorf("assignment for %q: %w: %s in %s",
						username, catalog.ErrMissingCase, caseID, e.Collection)
				}
			}
		}

		byUser[username] = userAssignment{collection: e.Collection, cases: cases}
	}

	s.mu.Lock()
	s.byUser = byUser
	s.mu.Unlock()
	return nil
}

// ReportsFor returns the ordered case ids assigned to a user. The order is
// stable across calls within a process lifetime.
func (s *Store) ReportsFor(username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byUser[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}

	out := make([]string, len(a.cases))
	copy(out, a.cases)
	return out, nil
}

// CollectionFor returns the collection name backing a user's assignment.
func (s *Store) CollectionFor(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byUser[username]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	return a.collection, nil
}
