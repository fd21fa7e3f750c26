package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteQueriesPreservesOrderAndDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")

	n, err := WriteQueries(path, []string{"A - B", "A - B", "C"})
	if err != nil {
		t.Fatalf("WriteQueries: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "A - B\nA - B\nC\n"; got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}
}

func TestWriteQueriesOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte("stale content\nmore\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteQueries(path, []string{"Fresh"}); err != nil {
		t.Fatalf("WriteQueries: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Fresh\n" {
		t.Errorf("file contents = %q", data)
	}
}

func TestWriteQueriesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")

	n, err := WriteQueries(path, nil)
	if err != nil {
		t.Fatalf("WriteQueries: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("file contents = %q, want empty", data)
	}
}

func TestWriteQueriesBadPath(t *testing.T) {
	if _, err := WriteQueries(filepath.Join(t.TempDir(), "no", "such", "dir", "q.txt"), []string{"A"}); err == nil {
		t.Error("expected error for unwritable path")
	}
}
