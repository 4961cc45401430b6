package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func startWatcher(t *testing.T, file string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.Watch(file); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	changed := make(chan string, 16)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func waitFor(t *testing.T, changed <-chan string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case path := <-changed:
			if path == want {
				return
			}
		case <-timeout:
			t.Fatalf("no change reported for %s", want)
		}
	}
}

func TestWatcher_Write(t *testing.T) {
	file := filepath.Join(t.TempDir(), "authorized_uids.json")
	os.WriteFile(file, []byte("[]"), 0o644)
	_, changed := startWatcher(t, file)

	if err := os.WriteFile(file, []byte(`["ab"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, file)
}

func TestWatcher_RenameIntoPlace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "client.crt")
	os.WriteFile(file, []byte("old"), 0o644)
	_, changed := startWatcher(t, file)

	tmp := filepath.Join(dir, ".client.crt.tmp")
	os.WriteFile(tmp, []byte("new"), 0o644)
	if err := os.Rename(tmp, file); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, file)
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Watch("/nonexistent/dir/gatecam.yaml"); err == nil {
		t.Error("Watch() expected error for a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_ConcurrentCallbacks(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var mu sync.Mutex
	count := 0
	w.OnChange(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notifyCallbacks("/etc/gatecam.yaml")
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("callbacks = %d, want 50", count)
	}
}
