package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"freshgrocer/internal/domain"
)

var imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}

// MediaStore writes product images below Root. Stored names are generated;
// the uploaded filename only contributes its extension.
type MediaStore struct {
	Root string
}

// ImagePath returns products/<owner>/<uuid-hex>.<ext> with ext reduced to
// the whitelist (jpg when missing or unknown).
func ImagePath(ownerID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !imageExts[ext] {
		ext = "jpg"
	}
	owner := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, ownerID)
	return path.Join("products", owner, strings.ReplaceAll(uuid.NewString(), "-", "")+"."+ext)
}

// Save copies the upload and returns its media-relative path.
func (m *MediaStore) Save(ownerID string, fh *multipart.FileHeader) (string, error) {
	rel := ImagePath(ownerID, fh.Filename)
	dst := filepath.Join(m.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return rel, out.Close()
}

// Remove deletes a stored image. Paths outside products/ are refused.
func (m *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean(rel)
	if !strings.HasPrefix(clean, "products/") || strings.Contains(rel, "..") {
		return domain.Invalid("image", "bad media path")
	}
	err := os.Remove(filepath.Join(m.Root, filepath.FromSlash(clean)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
