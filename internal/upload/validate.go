package upload

import (
	"strings"

	"github.com/devevents/devevents/internal/httperr"
	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes caps cover images at 2MB.
const MaxImageBytes = 2 * 1024 * 1024

// AllowedImageTypes is checked against the MIME type sniffed from the file
// contents, never the declared Content-Type.
var AllowedImageTypes = []string{"image/png", "image/jpeg"}

func ValidateImage(contents []byte) error {
	if len(contents) > MaxImageBytes {
		return httperr.PayloadTooLarge("File is too large. Max file size is 2MB")
	}

	detected := mimetype.Detect(contents)

	for _, allowed := range AllowedImageTypes {
		if detected.Is(allowed) {
			return nil
		}
	}

	return httperr.UnsupportedMedia("Unsupported file type. Allowed types are: " + strings.Join(AllowedImageTypes, ", "))
}
