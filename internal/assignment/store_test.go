package assignment_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BastienLeGuellec/PARROT-rating/internal/assignment"
	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
)

func setupData(t *testing.T, assignments string) (*catalog.Catalog, string) {
	t.Helper()
	dir := t.TempDir()

	collection := `{"case_id":"c1","original":"a"}
{"case_id":"c2","original":"b","modified":"bb"}
{"case_id":"c3","original":"c"}
`
	if err := os.WriteFile(filepath.Join(dir, "reports.jsonl"), []byte(collection), 0o644); err != nil {
		t.Fatalf("Failed to write collection: %v", err)
	}

	path := filepath.Join(dir, "assignments.json")
	if err := os.WriteFile(path, []byte(assignments), 0o644); err != nil {
		t.Fatalf("Failed to write assignments: %v", err)
	}

	return catalog.New(dir), path
}

func TestStore_ReportsFor_OrderStable(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "reports.jsonl", "cases": ["c3", "c1"]}}`)

	store, err := assignment.Load(path, cat)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"c3", "c1"}
	for i := 0; i < 3; i++ {
		got, err := store.ReportsFor("u1")
		if err != nil {
			t.Fatalf("ReportsFor failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("Expected %d cases, got %d", len(want), len(got))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("Call %d: cases[%d] = %s, want %s", i, j, got[j], want[j])
			}
		}
	}
}

func TestStore_UnknownUser(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "reports.jsonl"}}`)

	store, err := assignment.Load(path, cat)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := store.ReportsFor("ghost"); !errors.Is(err, assignment.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser, got %v", err)
	}
	if _, err := store.CollectionFor("ghost"); !errors.Is(err, assignment.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser, got %v", err)
	}
}

func TestStore_MissingCaseAbortsLoad(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "reports.jsonl", "cases": ["c1", "c9"]}}`)

	_, err := assignment.Load(path, cat)
	if !errors.Is(err, catalog.ErrMissingCase) {
		t.Fatalf("Expected ErrMissingCase, got %v", err)
	}
}

func TestStore_DuplicateCaseRejected(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "reports.jsonl", "cases": ["c1", "c1"]}}`)

	if _, err := assignment.Load(path, cat); err == nil {
		t.Fatal("Expected duplicate case to fail the load")
	}
}

func TestStore_BareCollectionUsesFileOrder(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "reports.jsonl"}}`)

	store, err := assignment.Load(path, cat)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got, err := store.ReportsFor("u1")
	if err != nil {
		t.Fatalf("ReportsFor failed: %v", err)
	}

	want := []string{"c1", "c2", "c3"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d cases, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cases[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	name, err := store.CollectionFor("u1")
	if err != nil {
		t.Fatalf("CollectionFor failed: %v", err)
	}
	if name != "reports.jsonl" {
		t.Errorf("Collection: expected reports.jsonl, got %s", name)
	}
}

func TestStore_MissingCollectionAbortsLoad(t *testing.T) {
	cat, path := setupData(t, `{"u1": {"collection": "nope.jsonl"}}`)

	if _, err := assignment.Load(path, cat); err == nil {
		t.Fatal("Expected missing collection to fail the load")
	}
}
