package media

import (
	"fmt"
	"mime"
	"strings"
)

var allowedMimeTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"image/gif":       {},
	"image/svg+xml":   {},
	"video/mp4":       {},
	"video/webm":      {},
	"application/pdf": {},
}

// normalizeMimeType strips parameters and lowercases the media type.
func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime_type is required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime_type invalid: %w", err)
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := allowedMimeTypes[mediaType]; !ok {
		return "", fmt.Errorf("mime_type %q is not allowed; use images, videos, or PDFs", mediaType)
	}
	return mediaType, nil
}
