package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
)

func TestEncodeProducesPNGDataURL(t *testing.T) {
	enc := NewEncoder()
	out, err := enc.Encode("http://kiosk.local/api/download/abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(out, DataURLPrefix) {
		t.Fatalf("expected %q prefix, got %q", DataURLPrefix, out[:32])
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, DataURLPrefix))
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if img.Bounds().Dx() != pngSize || img.Bounds().Dy() != pngSize {
		t.Fatalf("expected %dx%d image, got %v", pngSize, pngSize, img.Bounds())
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	enc := NewEncoder()
	a, err := enc.Encode("http://kiosk.local/api/download/abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := enc.Encode("http://kiosk.local/api/download/abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a != b {
		t.Fatal("expected identical output for identical URLs")
	}
}

func TestEncodeFailsOnOversizedContent(t *testing.T) {
	enc := NewEncoder()
	// QR version 40 caps out near 3KB; this cannot fit.
	if _, err := enc.Encode(strings.Repeat("x", 8000)); err == nil {
		t.Fatal("expected error for content beyond QR capacity")
	}
}
