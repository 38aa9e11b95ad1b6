// Package qrcode renders provisioning URIs as PNG QR codes, either as raw
// bytes or as a data URI the admin UI can drop into an <img> tag.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: content cannot be empty")
	ErrGenerateFailed = errors.New("qrcode: failed to generate QR code")
)

const (
	// DefaultSize is the image edge in pixels when none is specified.
	DefaultSize = 256

	dataURIPrefix = "data:image/png;base64,"
)

// PNG encodes content as a PNG image of size x size pixels. otpauth URIs
// are long, so medium error correction keeps the module count readable.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return png, nil
}

// DataURI returns the PNG for content as "data:image/png;base64,...".
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
