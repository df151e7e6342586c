package bill

import (
	"path/filepath"
	"regexp"
	"strings"
)

// InvalidFormatMessage is shown when a receipt is not an accepted picture
const InvalidFormatMessage = "Le format du fichier n'est pas valide"

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// IsPicture reports whether a receipt MIME type is accepted. The set is
// closed and matched exactly: image/jpg, image/jpeg and image/png.
func IsPicture(mimeType string) bool {
	switch mimeType {
	case "image/jpg", "image/jpeg", "image/png":
		return true
	}
	return false
}

// ContentTypeFromFilename guesses a MIME type when the client sent none
func ContentTypeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips everything but letters, digits, spaces, hyphens
// and underscores from the base name, and truncates long phone-generated names.
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	ext = unsafeChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
