package photo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
	"github.com/yndnr/gatecam/pkg/crypto/adaptive"
)

const (
	filePrefix    = "photo_"
	fileExtension = ".jpg"
	partialSuffix = "_partial"
	sealedSuffix  = ".sealed"

	filePerm = 0o640
)

// Config configures a Store.
type Config struct {
	// Dir is the directory photos are written to.
	Dir string `koanf:"dir"`

	// EncryptionKey is an optional 64 character hex key. When set, photos
	// are sealed at rest.
	EncryptionKey string `koanf:"encryption_key"`
}

// Store writes photos to a directory.
type Store struct {
	dir    string
	key    []byte
	cipher adaptive.Cipher
	logger *slog.Logger
}

// New creates the photo directory if needed and returns a Store.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrMissingArgument.WithDetails("photo dir")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("photo: create dir: %w", err)
	}

	s := &Store{dir: cfg.Dir, logger: logger}
	if cfg.EncryptionKey != "" {
		key, err := adaptive.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("photo: encryption key: %w", err)
		}
		c, err := adaptive.New(key)
		if err != nil {
			return nil, fmt.Errorf("photo: cipher: %w", err)
		}
		s.key, s.cipher = key, c
		logger.Info("photo sealing enabled", "cipher", c.Type())
	}
	return s, nil
}

// Dir returns the photo directory.
func (s *Store) Dir() string { return s.dir }

// Sealed reports whether photos are encrypted at rest.
func (s *Store) Sealed() bool { return s.cipher != nil }

// Path returns the file path a photo for id would be written to.
func (s *Store) Path(id domain.CorrelationID, partial bool) string {
	name := filePrefix + id.String()
	if partial {
		name += partialSuffix
	}
	name += fileExtension
	if s.cipher != nil {
		name += sealedSuffix
	}
	return filepath.Join(s.dir, name)
}

// Save writes photo and returns its path.
func (s *Store) Save(id domain.CorrelationID, photo []byte, partial bool) (string, error) {
	if id.IsZero() || strings.ContainsAny(id.String(), `/\`) {
		return "", domain.ErrPhotoWrite.WithDetails(fmt.Sprintf("invalid id %q", id))
	}

	data := photo
	if s.cipher != nil {
		sealed, err := adaptive.Seal(s.cipher, photo, []byte(id))
		if err != nil {
			return "", domain.ErrPhotoWrite.WithCause(err)
		}
		data = sealed
	}

	path := s.Path(id, partial)
	if err := storage.WriteBytesAtomic(path, data, filePerm); err != nil {
		return "", domain.ErrPhotoWrite.WithCause(err)
	}

	s.logger.Debug("photo saved", "path", path, "bytes", len(photo), "partial", partial)
	return path, nil
}

// Load reads a photo written by Save, unsealing it when needed. The
// correlation id is recovered from the file name.
func (s *Store) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("photo: read: %w", err)
	}
	if !strings.HasSuffix(path, sealedSuffix) {
		return data, nil
	}
	if s.key == nil {
		return nil, fmt.Errorf("photo: %s is sealed and no key is configured", filepath.Base(path))
	}

	id, ok := IDFromPath(path)
	if !ok {
		return nil, fmt.Errorf("photo: cannot derive id from %s", filepath.Base(path))
	}
	photo, err := adaptive.Open(s.key, data, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("photo: unseal: %w", err)
	}
	return photo, nil
}

// IDFromPath extracts the correlation id from a photo file name.
func IDFromPath(path string) (domain.CorrelationID, bool) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, sealedSuffix)
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
		return "", false
	}
	name = strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExtension)
	name = strings.TrimSuffix(name, partialSuffix)
	if name == "" {
		return "", false
	}
	return domain.CorrelationID(name), true
}
