// Package imagecodec decodes embedded image payloads into validated blobs.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidBase64 is returned when the payload is not valid base64.
	ErrInvalidBase64 = errors.New("invalid base64 payload")
	// ErrUnknownFormat is returned when the decoded bytes carry no known
	// image signature.
	ErrUnknownFormat = errors.New("unknown image format")
)

// Image is a decoded attachment ready for storage.
type Image struct {
	Data     []byte
	Ext      string
	FileName string
}

// allowedExtensions are the only extensions accepted for message attachments.
var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// IsAllowedExtension reports whether ext is accepted for message attachments.
// Decoding success alone is not sufficient; callers must check this too.
func IsAllowedExtension(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// Decode turns a base64 or data-URI image payload into an Image with an
// inferred extension and a fresh opaque file name.
func Decode(payload string) (*Image, error) {
	// Strip the "data:<mime>;base64," header when present.
	if strings.Contains(payload, "data:") && strings.Contains(payload, ";base64,") {
		_, payload, _ = strings.Cut(payload, ";base64,")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidBase64
	}

	ext := sniffExtension(data)
	if ext == "" {
		return nil, ErrUnknownFormat
	}

	// 12 characters are more than enough.
	name := uuid.NewString()[:12]

	return &Image{
		Data:     data,
		Ext:      ext,
		FileName: name + "." + ext,
	}, nil
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	gifMagic  = []byte("GIF8")
)

// sniffExtension infers the file type from magic bytes, never from a file
// name. A jpeg signature normalizes to the canonical "jpg" extension.
func sniffExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return "jpg"
	case bytes.HasPrefix(data, pngMagic):
		return "png"
	case bytes.HasPrefix(data, gifMagic):
		return "gif"
	default:
		return ""
	}
}
