package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// startWatcher runs a watcher over dir and returns a channel of change
// batches. The watcher is torn down with the test.
func startWatcher(t *testing.T, dir string) <-chan []Change {
	t.Helper()

	w := New(Config{
		Paths:    []string{dir},
		Debounce: 50 * time.Millisecond,
	})

	batches := make(chan []Change, 16)
	w.OnChange(func(changes []Change) {
		batches <- changes
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go w.Start(ctx)

	// Give the watcher a moment to register the directory tree before the
	// test starts writing files.
	deadline := time.Now().Add(2 * time.Second)
	for !w.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	return batches
}

func waitForBatch(t *testing.T, batches <-chan []Change) []Change {
	t.Helper()
	select {
	case changes := <-batches:
		return changes
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestWatcher_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := waitForBatch(t, batches)
	found := false
	for _, c := range changes {
		if c.Path == path {
			found = true
			if c.Type != ChangeMarkup {
				t.Errorf("change type = %d, want ChangeMarkup", c.Type)
			}
		}
	}
	if !found {
		t.Errorf("batch %v does not contain %s", changes, path)
	}
}

func TestWatcher_ClassifiesCSS(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	path := filepath.Join(dir, "style.css")
	if err := os.WriteFile(path, []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := waitForBatch(t, batches)
	for _, c := range changes {
		if c.Path == path && c.Type != ChangeCSS {
			t.Errorf("change type = %d, want ChangeCSS", c.Type)
		}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changes := waitForBatch(t, batches)
	if len(changes) < 2 {
		t.Errorf("expected a batched set of changes, got %d", len(changes))
	}

	// The burst should not produce a second batch.
	select {
	case extra := <-batches:
		t.Errorf("unexpected second batch: %v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	sub := filepath.Join(dir, "pages")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Wait out the registration of the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "about.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case changes := <-batches:
			for _, c := range changes {
				if c.Path == path {
					return
				}
			}
		case <-deadline:
			t.Fatalf("never saw change for %s", path)
		}
	}
}

func TestWatcher_MissingPath(t *testing.T) {
	w := New(Config{Paths: []string{filepath.Join(t.TempDir(), "nope")}})
	err := w.Start(context.Background())
	if err == nil {
		t.Fatal("expected error for missing watch path")
	}
}

func TestShouldIgnore(t *testing.T) {
	w := New(Config{Ignore: []string{".git", "node_modules", "*.tmp", "dist/*.map"}})

	tests := []struct {
		path   string
		ignore bool
	}{
		{"/site/.git", true},
		{"/site/.git/HEAD", true},
		{"/site/node_modules/pkg/index.js", true},
		{"/site/cache.tmp", true},
		{"/site/index.html", false},
		{"/site/assets/app.js", false},
		{"/site/gitlog.txt", false},
	}

	for _, tt := range tests {
		if got := w.shouldIgnore(tt.path); got != tt.ignore {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.ignore)
		}
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"style.css", ChangeCSS},
		{"theme.SCSS", ChangeCSS},
		{"index.html", ChangeMarkup},
		{"page.htm", ChangeMarkup},
		{"app.js", ChangeAsset},
		{"logo.png", ChangeAsset},
		{"README", ChangeAsset},
	}

	for _, tt := range tests {
		if got := classifyChange(tt.path); got != tt.want {
			t.Errorf("classifyChange(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}
