package apply

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/patchflow/patch"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestApply(t *testing.T) {
	t.Run("create in empty dir", func(t *testing.T) {
		dir := t.TempDir()
		results, err := New(dir).Apply([]patch.Change{
			{Path: "a.txt", Action: patch.ActionCreate, Content: "hi"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(results) != 1 || results[0].Path != "a.txt" || results[0].Status != StatusWritten {
			t.Errorf("results = %v", results)
		}
		if got := readFile(t, filepath.Join(dir, "a.txt")); got != "hi" {
			t.Errorf("a.txt = %q", got)
		}
	})

	t.Run("create with nested parents", func(t *testing.T) {
		dir := t.TempDir()
		_, err := New(dir).Apply([]patch.Change{
			{Path: "src/deep/nested/f.go", Action: patch.ActionCreate, Content: "package nested"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if got := readFile(t, filepath.Join(dir, "src", "deep", "nested", "f.go")); got != "package nested" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("modify backs up prior content", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}

		results, err := New(dir).Apply([]patch.Change{
			{Path: "a.txt", Action: patch.ActionModify, Content: "new"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if results[0].Status != StatusWritten {
			t.Errorf("status = %q", results[0].Status)
		}
		if got := readFile(t, filepath.Join(dir, "a.txt")); got != "new" {
			t.Errorf("a.txt = %q", got)
		}
		if got := readFile(t, filepath.Join(dir, DefaultBackupDir, "a.txt.bak")); got != "old" {
			t.Errorf("backup = %q", got)
		}
	})

	t.Run("repeated modify keeps single backup entry", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}

		a := New(dir)
		change := []patch.Change{{Path: "a.txt", Action: patch.ActionModify, Content: "new"}}
		if _, err := a.Apply(change); err != nil {
			t.Fatalf("first Apply: %v", err)
		}
		if _, err := a.Apply(change); err != nil {
			t.Fatalf("second Apply: %v", err)
		}

		if got := readFile(t, filepath.Join(dir, "a.txt")); got != "new" {
			t.Errorf("a.txt = %q", got)
		}

		entries, err := os.ReadDir(filepath.Join(dir, DefaultBackupDir))
		if err != nil {
			t.Fatalf("read backup dir: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "a.txt.bak" {
			t.Errorf("backup entries = %v, want exactly a.txt.bak", entries)
		}
	})

	t.Run("backup collision across directories", func(t *testing.T) {
		// Two paths sharing a base name share one backup slot; the
		// later write wins. Known gap, kept from the original design.
		dir := t.TempDir()
		for _, p := range []string{"x/same.txt", "y/same.txt"} {
			full := filepath.Join(dir, filepath.FromSlash(p))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(full, []byte("content of "+p), 0o644); err != nil {
				t.Fatal(err)
			}
		}

		_, err := New(dir).Apply([]patch.Change{
			{Path: "x/same.txt", Action: patch.ActionModify, Content: "nx"},
			{Path: "y/same.txt", Action: patch.ActionModify, Content: "ny"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}

		if got := readFile(t, filepath.Join(dir, DefaultBackupDir, "same.txt.bak")); got != "content of y/same.txt" {
			t.Errorf("backup = %q, want the later file's prior content", got)
		}
	})

	t.Run("delete existing", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		results, err := New(dir).Apply([]patch.Change{
			{Path: "gone.txt", Action: patch.ActionDelete},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if results[0].Status != StatusDeleted {
			t.Errorf("status = %q", results[0].Status)
		}
		if _, err := os.Stat(filepath.Join(dir, "gone.txt")); !os.IsNotExist(err) {
			t.Error("file still exists")
		}
	})

	t.Run("delete missing is not_found, not an error", func(t *testing.T) {
		results, err := New(t.TempDir()).Apply([]patch.Change{
			{Path: "never-existed.txt", Action: patch.ActionDelete},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if results[0].Status != StatusNotFound {
			t.Errorf("status = %q", results[0].Status)
		}
	})

	t.Run("unknown action continues processing", func(t *testing.T) {
		dir := t.TempDir()
		results, err := New(dir).Apply([]patch.Change{
			{Path: "a.txt", Action: "rename", Content: "x"},
			{Path: "b.txt", Action: patch.ActionCreate, Content: "b"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if results[0].Status != StatusUnknownAction {
			t.Errorf("first status = %q", results[0].Status)
		}
		if results[1].Status != StatusWritten {
			t.Errorf("second status = %q", results[1].Status)
		}
		if got := readFile(t, filepath.Join(dir, "b.txt")); got != "b" {
			t.Errorf("b.txt = %q", got)
		}
	})

	t.Run("ordered processing", func(t *testing.T) {
		dir := t.TempDir()
		results, err := New(dir).Apply([]patch.Change{
			{Path: "f.txt", Action: patch.ActionCreate, Content: "v1"},
			{Path: "f.txt", Action: patch.ActionModify, Content: "v2"},
			{Path: "f.txt", Action: patch.ActionDelete},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		want := []Status{StatusWritten, StatusWritten, StatusDeleted}
		for i, w := range want {
			if results[i].Status != w {
				t.Errorf("results[%d] = %q, want %q", i, results[i].Status, w)
			}
		}
		if _, err := os.Stat(filepath.Join(dir, "f.txt")); !os.IsNotExist(err) {
			t.Error("f.txt should be gone")
		}
	})

	t.Run("path escape rejected", func(t *testing.T) {
		for _, p := range []string{"../outside.txt", "/etc/passwd", "a/../../b.txt", ""} {
			_, err := New(t.TempDir()).Apply([]patch.Change{
				{Path: p, Action: patch.ActionCreate, Content: "x"},
			})
			if !errors.Is(err, ErrPathEscape) {
				t.Errorf("path %q: err = %v, want ErrPathEscape", p, err)
			}
		}
	})

	t.Run("io failure aborts with FileError", func(t *testing.T) {
		dir := t.TempDir()
		// Make the target path unwritable by placing a directory where
		// the file would go.
		if err := os.MkdirAll(filepath.Join(dir, "blocked.txt"), 0o755); err != nil {
			t.Fatal(err)
		}

		_, err := New(dir).Apply([]patch.Change{
			{Path: "blocked.txt", Action: patch.ActionCreate, Content: "x"},
			{Path: "after.txt", Action: patch.ActionCreate, Content: "y"},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		var fileErr *FileError
		if !errors.As(err, &fileErr) {
			t.Fatalf("err = %T, want *FileError", err)
		}
		// Remaining changes were aborted.
		if _, statErr := os.Stat(filepath.Join(dir, "after.txt")); !os.IsNotExist(statErr) {
			t.Error("after.txt should not have been written")
		}
	})
}
