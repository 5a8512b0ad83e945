// Package catalog loads report collections from JSONL files and indexes them
// by case id.
package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
)

// ErrMissingCase indicates a case id that does not resolve in its collection.
// Assignments referencing such a case are out of sync with the catalog; this
// is a data-integrity failure, not a user error.
var ErrMissingCase = errors.New("case not found in collection")

// Catalog loads and caches report collections from a directory. Collections
// are read-only once loaded; Reload re-reads a collection from disk.
type Catalog struct {
	dir string

	mu          sync.RWMutex
	collections map[string]*Collection
}

// Collection is an immutable index of report records keyed by case id. Order
// preserves the line order of the source file.
type Collection struct {
	Name string

	order []string
	index map[string]*model.ReportRecord
}

// New creates a catalog rooted at dir.
func New(dir string) *Catalog {
	return &Catalog{
		dir:         dir,
		collections: make(map[string]*Collection),
	}
}

// Load returns the collection with the given file name, reading it from disk
// on first use. Loading the same collection twice yields identical content.
func (c *Catalog) Load(name string) (*Collection, error) {
	c.mu.RLock()
	col, ok := c.collections[name]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	col, err := c.read(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded it meanwhile; content is identical
	// either way, keep the first one for pointer stability.
	if existing, ok := c.collections[name]; ok {
		return existing, nil
	}
	c.collections[name] = col
	return col, nil
}

// Reload re-reads a collection from disk, replacing the cached index.
func (c *Catalog) Reload(name string) (*Collection, error) {
	col, err := c.read(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.collections[name] = col
	c.mu.Unlock()
	return col, nil
}

func (c *Catalog) read(name string) (*Collection, error) {
	path := filepath.Join(c.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	defer f.Close()

	col := &Collection{
		Name:  name,
		index: make(map[string]*model.ReportRecord),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec := &model.ReportRecord{}
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("collection %s line %d: %w", name, lineNo, err)
		}
		if rec.CaseID == "" {
			return nil, fmt.Errorf("collection %s line %d: missing case_id", name, lineNo)
		}
		if _, dup := col.index[rec.CaseID]; dup {
			return nil, fmt.Errorf("collection %s line %d: duplicate case_id %q", name, lineNo, rec.CaseID)
		}

		col.index[rec.CaseID] = rec
		col.order = append(col.order, rec.CaseID)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	return col, nil
}

// Get returns the record for a case id.
func (col *Collection) Get(caseID string) (*model.ReportRecord, error) {
	rec, ok := col.index[caseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingCase, caseID, col.Name)
	}
	return rec, nil
}

// Has reports whether the collection contains a case id.
func (col *Collection) Has(caseID string) bool {
	_, ok := col.index[caseID]
	return ok
}

// CaseIDs returns the case ids in file order.
func (col *Collection) CaseIDs() []string {
	out := make([]string, len(col.order))
	copy(out, col.order)
	return out
}

// Len returns the number of records in the collection.
func (col *Collection) Len() int {
	return len(col.order)
}
