// Package storage keeps avatar images in a bucket backed by an afero filesystem.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrInvalidPath = errors.New("invalid object path")
	ErrNotFound    = errors.New("object not found")
	ErrNotImage    = errors.New("avatar must be an image")
)

// Bucket stores objects under slash separated keys.
type Bucket struct {
	fs afero.Fs
}

// NewBucket wraps fs. Tests pass afero.NewMemMapFs().
func NewBucket(fs afero.Fs) *Bucket {
	return &Bucket{fs: fs}
}

// NewDiskBucket stores objects below dir.
func NewDiskBucket(dir string) (*Bucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return NewBucket(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// Upload writes data at key, replacing any existing object.
func (b *Bucket) Upload(_ context.Context, key string, data []byte) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if dir := path.Dir(key); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(b.fs, key, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Download reads the object at key.
func (b *Bucket) Download(_ context.Context, key string) ([]byte, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(b.fs, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// DownloadDataURL reads the object at key as a data URL.
func (b *Bucket) DownloadDataURL(ctx context.Context, key string) (string, error) {
	data, err := b.Download(ctx, key)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}

// Materialize turns a profile avatar reference into something displayable.
// Remote URLs are returned as is; bucket keys are inlined. A failed download
// is logged and reported as no avatar.
func (b *Bucket) Materialize(ctx context.Context, avatarURL string) (string, bool) {
	if avatarURL == "" {
		return "", false
	}
	if strings.HasPrefix(avatarURL, "http") {
		return avatarURL, true
	}
	dataURL, err := b.DownloadDataURL(ctx, avatarURL)
	if err != nil {
		log.Printf("Failed to load avatar %s: %v", avatarURL, err)
		return "", false
	}
	return dataURL, true
}

// DataURL encodes data with its detected content type.
func DataURL(data []byte) string {
	mime := mimetype.Detect(data)
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// AvatarKey validates an uploaded image and returns a fresh key for it.
func AvatarKey(userID string, data []byte) (string, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", ErrNotImage
	}
	return path.Join(userID, uuid.NewString()+mime.Extension()), nil
}
