package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageFile(t *testing.T) {
	cases := map[string]bool{
		"photo.png":        true,
		"photo.PNG":        true,
		"shot.jpg":         true,
		"shot.jpeg":        true,
		"anim.gif":         true,
		"scan.bmp":         true,
		"modern.webp":      true,
		"raw.cr2":          false,
		"doc.pdf":          false,
		"noextension":      false,
		"archive.tar.webp": true,
	}

	for path, want := range cases {
		assert.Equal(t, want, IsImageFile(path), "path %q", path)
	}
}

func TestGetFileFormat(t *testing.T) {
	assert.Equal(t, FormatJPEG, GetFileFormat("a.jpeg"))
	assert.Equal(t, FormatJPEG, GetFileFormat("a.jpg"))
	assert.Equal(t, FormatWEBP, GetFileFormat("b.webp"))
	assert.Equal(t, FormatUnknown, GetFileFormat("c.tiff"))
}

func TestGetSupportedExtensions(t *testing.T) {
	extensions := GetSupportedExtensions()
	assert.Len(t, extensions, 6)
	assert.Contains(t, extensions, ".png")
	assert.Contains(t, extensions, ".webp")
}
