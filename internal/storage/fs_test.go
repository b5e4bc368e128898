package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func newTestFS(t *testing.T, files map[string]string) *FS {
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
	f, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewFSRejectsMissingRoot(t *testing.T) {
	if _, err := NewFS("/nonexistent/path"); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestNewFSRejectsFileRoot(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestListMarkdownOnly(t *testing.T) {
	f := newTestFS(t, map[string]string{
		"a.md":        "one",
		"sub/b.md":    "two",
		"ignored.txt": "not markdown",
		"sub/x.png":   "binary",
	})

	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
		if m.Mtime <= 0 {
			t.Errorf("mtime for %s = %v", m.Path, m.Mtime)
		}
	}
	sort.Strings(paths)
	if len(paths) != 2 || paths[0] != "a.md" || paths[1] != "sub/b.md" {
		t.Errorf("paths = %v", paths)
	}
}

func TestListEmptyVault(t *testing.T) {
	f := newTestFS(t, nil)
	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("metas = %v", metas)
	}
}

func TestReadReturnsBytes(t *testing.T) {
	f := newTestFS(t, map[string]string{"note.md": "# Hello\nContent."})
	data, err := f.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "# Hello\nContent." {
		t.Errorf("data = %q", data)
	}
}

func TestReadMissingFile(t *testing.T) {
	f := newTestFS(t, nil)
	if _, err := f.Read("nope.md"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadRejectsTraversal(t *testing.T) {
	f := newTestFS(t, map[string]string{"note.md": "x"})
	for _, p := range []string{"../outside.md", "sub/../../escape.md", "/etc/passwd"} {
		if _, err := f.Read(p); err == nil {
			t.Errorf("Read(%q) should fail", p)
		}
	}
}
