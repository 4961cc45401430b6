package tlsroots

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_InvalidFiles(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	os.WriteFile(certFile, []byte("invalid"), 0o644)
	os.WriteFile(keyFile, []byte("invalid"), 0o600)

	if _, err := NewWatcher(certFile, keyFile); err == nil {
		t.Error("NewWatcher() expected error for invalid key pair")
	}
	if _, err := NewWatcher("/nonexistent/c.pem", "/nonexistent/k.pem"); err == nil {
		t.Error("NewWatcher() expected error for missing files")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	writeKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	w.Stop()
	w.Stop()
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	first := writeKeyPair(t, certFile, keyFile)

	reloaded := make(chan struct{}, 4)
	w, err := NewWatcher(certFile, keyFile,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func() { reloaded <- struct{}{} }),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	<-reloaded // initial load

	if got := w.Certificate().Leaf.SerialNumber; got.Cmp(first) != 0 {
		t.Fatalf("initial serial = %v, want %v", got, first)
	}

	w.StartAsync()
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	second := writeKeyPair(t, certFile, keyFile)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-reloaded:
			if w.Certificate().Leaf.SerialNumber.Cmp(second) == 0 {
				return
			}
		case <-deadline:
			t.Fatal("certificate was not reloaded")
		}
	}
}
