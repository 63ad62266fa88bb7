package users

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenSaveLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := saveToken("abc123"); err != nil {
		t.Fatalf("saveToken: %v", err)
	}

	token, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token: got %q, want abc123", token)
	}

	// Token file must not be world-readable.
	info, err := os.Stat(filepath.Join(os.Getenv("HOME"), tokenFileName))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode: got %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadToken_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadToken(); err == nil {
		t.Error("expected error when no token saved")
	}
}
