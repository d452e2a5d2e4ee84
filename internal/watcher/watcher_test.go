package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func mustStartWatcher(t *testing.T, storePath string, changes *atomic.Int32) *Watcher {
	t.Helper()
	w, err := New(Config{
		StorePath: storePath,
		Debounce:  50 * time.Millisecond,
		OnChange:  func() { changes.Add(1) },
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitForChanges(t *testing.T, changes *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if changes.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("changes = %d, want at least %d", changes.Load(), want)
}

func TestNewRequiresStorePath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New without a store path should fail")
	}
}

func TestWriteTriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.db")
	if err := os.WriteFile(storePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("writing store: %v", err)
	}

	var changes atomic.Int32
	mustStartWatcher(t, storePath, &changes)

	if err := os.WriteFile(storePath, []byte("v2"), 0644); err != nil {
		t.Fatalf("writing store: %v", err)
	}
	waitForChanges(t, &changes, 1)
}

func TestBurstOfWritesIsDebounced(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.db")

	var changes atomic.Int32
	mustStartWatcher(t, storePath, &changes)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(storePath, []byte{byte(i)}, 0644); err != nil {
			t.Fatalf("writing store: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitForChanges(t, &changes, 1)

	// The burst fits inside one debounce window.
	time.Sleep(200 * time.Millisecond)
	if got := changes.Load(); got != 1 {
		t.Errorf("changes = %d, want 1 for a rapid burst", got)
	}
}

func TestUnrelatedFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.db")
	if err := os.WriteFile(storePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("writing store: %v", err)
	}

	var changes atomic.Int32
	mustStartWatcher(t, storePath, &changes)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := changes.Load(); got != 0 {
		t.Errorf("changes = %d, want 0 for unrelated writes", got)
	}
}

func TestSidecarWritesCount(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "tasks.db")
	if err := os.WriteFile(storePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("writing store: %v", err)
	}

	var changes atomic.Int32
	mustStartWatcher(t, storePath, &changes)

	if err := os.WriteFile(storePath+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	waitForChanges(t, &changes, 1)
}

func TestDirectoryStoreWatchesAllEntries(t *testing.T) {
	dir := t.TempDir()

	var changes atomic.Int32
	mustStartWatcher(t, dir, &changes)

	if err := os.WriteFile(filepath.Join(dir, "anything.json"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing entry: %v", err)
	}
	waitForChanges(t, &changes, 1)
}

func TestStopIsIdempotentAndBlocksRestart(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "tasks.db")
	w, err := New(Config{StorePath: storePath, OnChange: func() {}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	w.Stop()
	w.Stop()

	if err := w.Start(); err == nil {
		t.Error("Start after Stop should fail")
	}
}
