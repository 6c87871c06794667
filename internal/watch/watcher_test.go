package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()

	watched := filepath.Join(tmpDir, "net.m1")
	other := filepath.Join(tmpDir, "notes.txt")
	for _, f := range []string{watched, other} {
		if err := os.WriteFile(f, []byte("initial content"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	var mu sync.Mutex
	var changes [][]string

	watcher, err := NewFileWatcher([]string{watched}, nil, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	time.Sleep(200 * time.Millisecond) // Allow watcher to initialize
	if err := os.WriteFile(other, []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}
	if err := os.WriteFile(watched, []byte("modified content"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	// Wait for debounce
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(changes) == 0 {
		t.Fatal("Expected changes to be detected")
	}
	for _, batch := range changes {
		for _, f := range batch {
			if filepath.Base(f) != "net.m1" {
				t.Errorf("Unexpected change reported for %s", f)
			}
		}
	}
}

func TestFileWatcher_StopTwice(t *testing.T) {
	watcher, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "a.m1")}, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Fatalf("First stop failed: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Second stop should be a no-op, got %v", err)
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var files []string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		files = f
	})

	debouncer.Add("b.m1")
	debouncer.Add("a.m1")
	debouncer.Add("b.m1")

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if calls != 1 {
		t.Fatalf("Expected callback to be called once, got %d", calls)
	}
	if len(files) != 2 || files[0] != "a.m1" || files[1] != "b.m1" {
		t.Errorf("Expected [a.m1 b.m1], got %v", files)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	called := false

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("a.m1")
	debouncer.Stop()
	debouncer.Add("b.m1")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("Expected no callback after Stop")
	}
}
