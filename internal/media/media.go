// Package media stores uploaded images on the local filesystem and hands out
// references to them.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for files that are not jpg, png or webp.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Store saves binary assets and returns their public reference.
type Store interface {
	Save(ctx context.Context, dir, filename string, r io.Reader) (string, error)
	// Delete removes the asset behind a reference returned by Save. A missing
	// asset is not an error.
	Delete(ctx context.Context, ref string) error
}

// LocalStore writes under Root and builds references under URLPrefix.
type LocalStore struct {
	Root      string
	URLPrefix string
	now       func() time.Time
}

func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{Root: root, URLPrefix: strings.TrimSuffix(urlPrefix, "/"), now: time.Now}
}

// Save keeps only the extension of filename; the stored name is the current
// unix nano time.
func (s *LocalStore) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedFormat
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir = path.Clean("/" + filepath.ToSlash(dir))[1:]
	target := filepath.Join(s.Root, filepath.FromSlash(dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d%s", s.now().UnixNano(), ext)
	f, err := os.OpenFile(filepath.Join(target, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join(s.URLPrefix, dir, name), nil
}

// Delete accepts only references under URLPrefix.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(path.Clean(ref), s.URLPrefix+"/")
	if !ok || rel == "" || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("reference %q is outside %s", ref, s.URLPrefix)
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
