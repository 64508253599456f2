// Package blobfs stores uploaded image blobs as files under one directory.
package blobfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/colimarl/groupchat-server/internal/store"
)

// MaxBlobBytes is the default upload size cap (2 MiB).
const MaxBlobBytes = 2 << 20

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// AllowedExtension reports whether filename carries an allowed image
// extension. Matching is case-insensitive.
func AllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Store implements store.BlobStore on the local filesystem.
type Store struct {
	dir      string
	maxBytes int64
}

// New creates the blob directory if needed. maxBytes <= 0 selects
// MaxBlobBytes.
func New(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBlobBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Put validates size and extension, then writes the blob under a fresh
// reference. Validation failures happen before anything touches disk.
func (s *Store) Put(_ context.Context, data []byte, filename string) (string, error) {
	if int64(len(data)) > s.maxBytes {
		return "", store.ErrPayloadTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", store.ErrExtensionNotAllowed
	}

	ref := time.Now().UTC().Format("20060102150405") + "_" + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// Get returns the blob bytes and their sniffed content type.
func (s *Store) Get(_ context.Context, ref string) ([]byte, string, error) {
	// References are flat file names; anything path-like is unknown.
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, "", store.ErrBlobNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", store.ErrBlobNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}

	return data, mimetype.Detect(data).String(), nil
}
