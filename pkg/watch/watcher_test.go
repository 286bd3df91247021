package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := NewWatcher(50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestMatches(t *testing.T) {
	w := newTestWatcher(t)

	tests := []struct {
		path string
		want bool
	}{
		{"/drop/FM01.csv", true},
		{"/drop/export.xlsx", true},
		{"/drop/notes.txt", false},
		{"/drop/.FM01.fdv.tmp123", false},
		{"/drop/.hidden.csv", false},
	}
	for _, tt := range tests {
		if got := w.matches(tt.path); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCustomPatterns(t *testing.T) {
	w, err := NewWatcher(time.Second, []string{"*.dat"})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if !w.matches("/drop/logger.dat") {
		t.Error("custom pattern not matched")
	}
	if w.matches("/drop/logger.csv") {
		t.Error("default pattern still active")
	}
}

func TestWatchRejectsNonDirectory(t *testing.T) {
	w := newTestWatcher(t)

	file := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(file); err == nil {
		t.Error("file accepted as watch directory")
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("missing directory accepted")
	}
}

func TestRunInvokesCallbackAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 1)
	w.OnFile = func(path string) error {
		mu.Lock()
		got = append(got, filepath.Base(path))
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "FM01.csv"), []byte("Timestamp,Depth\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Files the patterns exclude must never reach the callback.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never invoked")
	}

	// Allow any stray events to flush before asserting.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for _, name := range got {
		if name != "FM01.csv" {
			t.Errorf("unexpected callback for %q", name)
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestUnchangedFileNotReprocessed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "FM01.csv")
	if err := os.WriteFile(path, []byte("Timestamp,Depth\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t)
	calls := 0
	w.OnFile = func(string) error {
		calls++
		return nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	state := &fileState{path: path, lastModified: stat.ModTime(), size: stat.Size()}

	w.handleChange(path, state)
	if calls != 0 {
		t.Errorf("unchanged file reprocessed %d times", calls)
	}

	state.size = 0 // pretend the last conversion saw a shorter file
	w.handleChange(path, state)
	if calls != 1 {
		t.Errorf("changed file processed %d times, want 1", calls)
	}
}
