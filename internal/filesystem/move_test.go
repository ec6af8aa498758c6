package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMoveDir(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "staging", "abc")
	dst := filepath.Join(root, "thumbnails", "ab", "abcdef")
	writeFiles(t, src, "0000.jpg", "0001.jpg", "keypoints/0003.5.jpg")

	if err := MoveDir(src, dst); err != nil {
		t.Fatalf("MoveDir() error = %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still exists: %v", err)
	}
	for _, name := range []string{"0000.jpg", "0001.jpg", "keypoints/0003.5.jpg"} {
		data, err := os.ReadFile(filepath.Join(dst, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(data) != name {
			t.Errorf("%s content = %q", name, data)
		}
	}
}

func TestMoveDir_ReplacesExisting(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "new")
	dst := filepath.Join(root, "current")
	writeFiles(t, src, "0000.jpg")
	writeFiles(t, dst, "0000.jpg", "0017.jpg")

	if err := MoveDir(src, dst); err != nil {
		t.Fatalf("MoveDir() error = %v", err)
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("destination has %d entries, want 1 (stale frames must be gone)", len(entries))
	}
}

func TestCopyTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	writeFiles(t, src, "a.jpg", "sub/b.jpg")

	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree() error = %v", err)
	}
	for _, name := range []string{"a.jpg", "sub/b.jpg"} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(src, "a.jpg")); err != nil {
		t.Errorf("copyTree must leave the source in place: %v", err)
	}
}

func TestMoveFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "frame.jpg")
	dst := filepath.Join(root, "thumbs", "keypoints", "0012.25.jpg")
	writeFiles(t, root, "frame.jpg")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestRemoveDir_Missing(t *testing.T) {
	if err := RemoveDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("RemoveDir() on missing path = %v, want nil", err)
	}
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg")

	if err := RemoveFile(filepath.Join(dir, "a.jpg")); err != nil {
		t.Fatalf("RemoveFile() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(err) {
		t.Error("file still present")
	}
	if err := RemoveFile(filepath.Join(dir, "a.jpg")); err != nil {
		t.Errorf("RemoveFile() on missing file error = %v", err)
	}
}
