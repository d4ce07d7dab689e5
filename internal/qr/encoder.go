// Package qr renders download URLs as QR code image data URLs.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DataURLPrefix is the prefix of every encoded payload.
const DataURLPrefix = "data:image/png;base64,"

const pngSize = 256

// Encoder renders URLs into PNG QR codes.
type Encoder struct{}

// NewEncoder returns a QR encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Encode returns the URL rendered as a base64 PNG data URL.
func (e *Encoder) Encode(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
