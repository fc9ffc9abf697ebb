package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsEncounterEdits(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "boss.yaml")
	if err := os.WriteFile(target, []byte("id: boss\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Events:
		if name != target {
			t.Fatalf("expected %s, got %s", target, name)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("expected an event for %s", target)
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatalf("expected events channel closed")
	}
}
