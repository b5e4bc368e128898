// Package testutil provides shared test helpers for setting up vaults
// and databases.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvarkas/memex/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically
// cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "memex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory populated with the
// given files (path -> content). Subdirectories are created as needed.
func TestVault(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// AddNote writes one more file into an existing vault directory.
func AddNote(t *testing.T, root, path, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// FakeEmbedder returns deterministic vectors keyed by text so tests
// can steer semantic distances without a real embedding service.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Calls   int
}

// Embed implements embed.Embedder.
func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls++
	if v, ok := f.Vectors[text]; ok {
		return v, nil
	}
	if f.Default != nil {
		return f.Default, nil
	}
	return nil, fmt.Errorf("no vector for %q", text)
}
