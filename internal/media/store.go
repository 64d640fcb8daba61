// Package media implements object storage for images and documents. Objects
// are addressed by opaque keys of the form "folder/uuid.ext"; callers hold
// only the key and never a filesystem path.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Folders used by the application.
const (
	FolderAnimales = "animales"
	FolderNoticias = "noticias"
	FolderPerfiles = "usuarios/perfiles"
	FolderAdopcion = "adopciones"
)

// Store is the media provider seam: upload, delete and URL resolution.
type Store interface {
	// Save persists content under folder and returns the opaque object key.
	// The original filename only contributes its extension.
	Save(ctx context.Context, folder, filename string, content []byte) (string, error)
	// Delete removes the object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for a stored key, or "" for an empty key.
	URL(key string) string
}

// DiskStore stores objects under a root directory. It stands in for an
// external provider; the key scheme matches what a bucket-backed store
// would use.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates a DiskStore rooted at dir. baseURL prefixes public
// URLs (e.g. "http://localhost:8375").
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &DiskStore{root: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes the content and returns the generated key.
func (s *DiskStore) Save(ctx context.Context, folder, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("no content to store")
	}
	if !validFolder(folder) {
		return "", fmt.Errorf("invalid media folder %q", folder)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := folder + "/" + uuid.NewString() + ext

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes the object for key. A missing object is not an error.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	if !ValidKey(key) {
		return fmt.Errorf("invalid media key %q", key)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public URL for key.
func (s *DiskStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/media/" + key
}

// Path resolves a key to its on-disk location, for serving.
func (s *DiskStore) Path(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// ValidKey rejects keys that could escape the store root. Keys are
// slash-separated segments of [a-zA-Z0-9._-] with no dot-prefixed segments.
func ValidKey(key string) bool {
	if key == "" || len(key) > 512 {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") {
			return false
		}
		for _, r := range seg {
			if !isKeyRune(r) {
				return false
			}
		}
	}
	return true
}

func validFolder(folder string) bool {
	switch folder {
	case FolderAnimales, FolderNoticias, FolderPerfiles, FolderAdopcion:
		return true
	}
	return false
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
