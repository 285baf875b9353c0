// Package assets stores uploaded images (payment screenshots, product
// photos) on local disk.
package assets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// DefaultMaxBytes bounds a single upload.
const DefaultMaxBytes = 5 << 20

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

var (
	ErrUnsupportedType = models.Invalid("only .png, .jpg and .jpeg images are accepted")
	ErrTooLarge        = models.Invalid("upload is too large")
)

type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates dir if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create %q: %w", dir, err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save writes r under "<uuid>_<sanitized name>" and returns that name.
// The extension must be an accepted image type and the content must sniff
// as an image.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	clean, err := sanitize(name)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("assets: read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", ErrUnsupportedType
	}

	ref := uuid.NewString() + "_" + clean
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write %q: %w", ref, err)
	}
	return ref, nil
}

// Exists reports whether ref names a stored file.
func (s *Store) Exists(ref string) bool {
	if ref == "" || ref != filepath.Base(ref) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, ref))
	return err == nil
}

// sanitize reduces an uploaded file name to a safe slug plus its lower-case
// extension.
func sanitize(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "upload"
	}
	return stem + ext, nil
}
