package services_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshgrocer/internal/services"
)

func TestImagePath(t *testing.T) {
	tests := []struct {
		filename string
		ext      string
	}{
		{"photo.JPG", ".jpg"},
		{"photo.jpeg", ".jpeg"},
		{"evil.php", ".jpg"},
		{"noext", ".jpg"},
		{"../../etc/passwd.png", ".png"},
		{"a.tar.gz", ".jpg"},
	}
	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			p := services.ImagePath("u-1", tt.filename)
			assert.True(t, strings.HasPrefix(p, "products/u-1/"), p)
			assert.Equal(t, tt.ext, filepath.Ext(p))
			assert.NotContains(t, p, "..")
			assert.NotContains(t, p, strings.TrimSuffix(filepath.Base(tt.filename), filepath.Ext(tt.filename)))
			assert.False(t, seen[p])
			seen[p] = true
		})
	}

	assert.NotContains(t, services.ImagePath("../x", "a.png"), "..")
}

func TestMediaStoreSaveRemove(t *testing.T) {
	m := &services.MediaStore{Root: t.TempDir()}

	rel, err := m.Save("u-1", fileHeader(t, "pic.gif", "GIF89a"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(m.Root, rel))
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(b))

	require.NoError(t, m.Remove(rel))
	require.NoError(t, m.Remove(rel))
	assert.Error(t, m.Remove("../outside.txt"))
	assert.NoError(t, m.Remove(""))
}
