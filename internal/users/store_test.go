package users_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/BastienLeGuellec/PARROT-rating/internal/users"
)

func writeUsers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write users file: %v", err)
	}
	return path
}

func TestStore_VerifyAndAdmin(t *testing.T) {
	content := fmt.Sprintf(`
- username: alice
  password_hash: %s
  admin: true
- username: bob
  password_hash: %s
`, users.HashPassword("secret"), users.HashPassword("hunter2"))

	store, err := users.Load(writeUsers(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !store.Verify("alice", "secret") {
		t.Error("alice/secret should verify")
	}
	if store.Verify("alice", "wrong") {
		t.Error("alice/wrong should not verify")
	}
	if store.Verify("ghost", "secret") {
		t.Error("unknown user should not verify")
	}

	if !store.IsAdmin("alice") {
		t.Error("alice should be admin")
	}
	if store.IsAdmin("bob") {
		t.Error("bob should not be admin")
	}

	names := store.Usernames()
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("Usernames: expected [alice bob], got %v", names)
	}
}

func TestStore_FirstUserPromotedWhenNoAdmin(t *testing.T) {
	content := fmt.Sprintf(`
- username: carol
  password_hash: %s
- username: dave
  password_hash: %s
`, users.HashPassword("pw1"), users.HashPassword("pw2"))

	store, err := users.Load(writeUsers(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !store.IsAdmin("carol") {
		t.Error("first user should be promoted to admin")
	}
	if store.IsAdmin("dave") {
		t.Error("second user should not be promoted")
	}
}

func TestStore_DuplicateUsernameRejected(t *testing.T) {
	content := `
- username: alice
  password_hash: abc
- username: alice
  password_hash: def
`
	if _, err := users.Load(writeUsers(t, content)); err == nil {
		t.Fatal("Expected duplicate username to fail the load")
	}
}

func TestStore_EmptyFileRejected(t *testing.T) {
	if _, err := users.Load(writeUsers(t, "[]\n")); err == nil {
		t.Fatal("Expected empty users file to fail the load")
	}
}
