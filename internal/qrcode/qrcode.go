// Package qrcode turns participant identifiers into scannable PNG images
// and reads them back out of stored data URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// ErrNotBase64 is returned for data URLs whose header is not ;base64.
var ErrNotBase64 = errors.New("qr payload is not base64 encoded")

// Encoder renders identifiers as PNG data URLs.
type Encoder struct {
	Size  int
	Level qr.RecoveryLevel
}

// NewEncoder returns an Encoder producing 256px images with medium error
// correction, enough for printed badges scanned from a phone.
func NewEncoder() *Encoder {
	return &Encoder{Size: 256, Level: qr.Medium}
}

// Encode returns "data:image/png;base64,..." for id.
func (e *Encoder) Encode(id string) (string, error) {
	if id == "" {
		return "", errors.New("qr: empty id")
	}
	png, err := qr.Encode(id, e.Level, e.Size)
	if err != nil {
		return "", fmt.Errorf("qr encode %q: %w", id, err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURL extracts the image bytes from a stored payload. A payload
// without a comma is treated as raw base64.
func DecodeDataURL(payload string) ([]byte, error) {
	b64 := payload
	if i := strings.IndexByte(payload, ','); i >= 0 {
		if !strings.HasSuffix(strings.ToLower(payload[:i]), ";base64") {
			return nil, ErrNotBase64
		}
		b64 = payload[i+1:]
	}
	out, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("qr decode: %w", err)
	}
	return out, nil
}
