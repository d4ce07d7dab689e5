// Package uploads stores multipart video payloads on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotVideo is returned for payloads whose content type is not video/*.
	ErrNotVideo = errors.New("only video files are allowed")
	// ErrTooLarge is returned for payloads over the configured size limit.
	ErrTooLarge = errors.New("video exceeds size limit")
)

// Receiver validates and persists uploaded videos. Files are written under
// Dir with a generated name and a fixed .mp4 extension; the original
// filename is never used on disk.
type Receiver struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// NewReceiver creates the upload directory if needed.
func NewReceiver(dir string, maxSizeMiB int64, logger *zap.Logger) (*Receiver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Receiver{dir: dir, maxBytes: maxSizeMiB << 20, logger: logger}, nil
}

// Dir returns the directory videos are stored under.
func (r *Receiver) Dir() string { return r.dir }

// MaxBytes returns the per-file size limit.
func (r *Receiver) MaxBytes() int64 { return r.maxBytes }

// Store validates the multipart file header and writes the payload to disk,
// returning the stored path.
func (r *Receiver) Store(file *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(strings.ToLower(file.Header.Get("Content-Type")), "video/") {
		return "", ErrNotVideo
	}
	if file.Size > r.maxBytes {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("video-%d-%s.mp4", time.Now().UnixMilli(), uuid.New().String())
	path := filepath.Join(r.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create video file: %w", err)
	}

	// Guard against clients lying in the size header: cap the copy and
	// discard the file if the body runs past the limit.
	n, err := io.Copy(dst, io.LimitReader(src, r.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write video file: %w", err)
	}
	if n > r.maxBytes {
		_ = os.Remove(path)
		return "", ErrTooLarge
	}

	r.logger.Info("video stored",
		zap.String("path", path),
		zap.Int64("size", n),
		zap.String("original_name", file.Filename))
	return path, nil
}
