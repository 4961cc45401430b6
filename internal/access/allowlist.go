package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/infra/confloader"
	"github.com/yndnr/gatecam/internal/storage"
	"github.com/yndnr/gatecam/pkg/uidhash"
)

// Allowlist authorizes card UIDs against a JSON array of HMAC digests.
type Allowlist struct {
	path   string
	hasher *uidhash.Hasher
	logger *slog.Logger

	mu      sync.RWMutex
	digests []string
}

// LoadAllowlist reads the allowlist file at path.
func LoadAllowlist(path string, hasher *uidhash.Hasher, logger *slog.Logger) (*Allowlist, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Allowlist{path: path, hasher: hasher, logger: logger}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-reads the file. On failure the previous entries stay in effect.
func (a *Allowlist) Reload() error {
	digests, err := readDigests(a.path)
	if err != nil {
		return domain.ErrAllowlistLoad.WithCause(err)
	}

	a.mu.Lock()
	a.digests = digests
	a.mu.Unlock()

	a.logger.Info("allowlist loaded", "path", a.path, "entries", len(digests))
	return nil
}

// Authorize reports whether uid is on the list.
func (a *Allowlist) Authorize(uid string) bool {
	digest := a.hasher.Hash(uid)

	a.mu.RLock()
	defer a.mu.RUnlock()
	return uidhash.Contains(a.digests, digest)
}

// Len returns the number of entries.
func (a *Allowlist) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.digests)
}

// Watch reloads the allowlist whenever w reports a change to its file.
func (a *Allowlist) Watch(w *confloader.Watcher) error {
	target, err := filepath.Abs(a.path)
	if err != nil {
		return err
	}
	w.OnChange(func(changed string) {
		if abs, err := filepath.Abs(changed); err != nil || abs != target {
			return
		}
		if err := a.Reload(); err != nil {
			a.logger.Error("allowlist reload failed, keeping previous entries", "error", err)
		}
	})
	return w.Watch(a.path)
}

// Enroll hashes uids and writes them to path as an indented JSON array.
// With merge set, digests already in the file are kept. It returns the
// number of entries written.
func Enroll(path string, hasher *uidhash.Hasher, uids []string, merge bool) (int, error) {
	var digests []string
	if merge {
		existing, err := readDigests(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, domain.ErrAllowlistLoad.WithCause(err)
		}
		digests = existing
	}

	for _, uid := range uids {
		uid = uidhash.Normalize(uid)
		if uid == "" {
			return 0, domain.ErrEmptyUID
		}
		d := hasher.Hash(uid)
		if !uidhash.Contains(digests, d) {
			digests = append(digests, d)
		}
	}
	if digests == nil {
		digests = []string{}
	}

	data, err := json.MarshalIndent(digests, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := storage.WriteBytesAtomic(path, append(data, '\n'), 0o600); err != nil {
		return 0, fmt.Errorf("access: write allowlist: %w", err)
	}
	return len(digests), nil
}

func readDigests(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var digests []string
	if err := json.Unmarshal(data, &digests); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	for i, d := range digests {
		if !uidhash.ValidDigest(d) {
			return nil, fmt.Errorf("entry %d is not a hex sha256 digest", i)
		}
	}
	return digests, nil
}
