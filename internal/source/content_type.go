package source

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Common MIME types for image file extensions
var commonMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".heic": "image/heic",
	".heif": "image/heif",
	".hif":  "image/heif",
}

var heifMimeTypes = map[string]bool{
	"image/heic":          true,
	"image/heif":          true,
	"image/heic-sequence": true,
	"image/heif-sequence": true,
}

// DetectContentType determines the content type of a file based on its extension
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	if mimeType, ok := commonMimeTypes[ext]; ok {
		return mimeType
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}

	return "application/octet-stream"
}

// SniffContentType determines the content type from the leading bytes of data
func SniffContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ContentType prefers a declared media type, then the file extension, then the content
func ContentType(name, declared string, data []byte) string {
	if mt := normalizeMediaType(declared); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if ct := DetectContentType(name); ct != "application/octet-stream" {
		return ct
	}
	return normalizeMediaType(SniffContentType(data))
}

// IsImageFile checks if a file is an image based on its extension
func IsImageFile(filename string) bool {
	_, ok := commonMimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsHEIF reports whether a photo is a HEIC/HEIF container, judged by its
// extension, its declared media type or its content
func IsHEIF(name, declared string, data []byte) bool {
	if heifMimeTypes[DetectContentType(name)] {
		return true
	}
	if heifMimeTypes[normalizeMediaType(declared)] {
		return true
	}
	return IsHEIFData(data)
}

// IsHEIFData sniffs data for a HEIC/HEIF container
func IsHEIFData(data []byte) bool {
	mt := mimetype.Detect(data)
	for m := range heifMimeTypes {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

func normalizeMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}
