package fingerprint

import (
	"path/filepath"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Supported image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
}

// IsImageFile checks if a file is a supported image based on extension
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, supported := formatExtensions[ext]
	return supported
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// GetSupportedExtensions returns all supported image file extensions
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	return extensions
}
