// Package kiosk exposes the session lifecycle over HTTP.
package kiosk

import (
	"errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/video-kiosk/backend/internal/models"
	"github.com/video-kiosk/backend/internal/realtime"
	"github.com/video-kiosk/backend/internal/sessions"
	"github.com/video-kiosk/backend/internal/uploads"
	"github.com/video-kiosk/backend/pkg/queue"
	"github.com/video-kiosk/backend/pkg/response"
	"github.com/video-kiosk/backend/pkg/storage"
)

// QREncoder renders a download URL as an image data URL.
type QREncoder interface {
	Encode(url string) (string, error)
}

// Broadcaster fans lifecycle events out to connected displays.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Handler implements the kiosk session endpoints.
type Handler struct {
	store    *sessions.Store
	receiver *uploads.Receiver
	encoder  QREncoder
	hub      Broadcaster
	queue    *queue.Queue // optional: archive pipeline
	s3       *storage.S3  // optional: presigned archive downloads
	baseURL  string       // optional override for download URLs
	logger   *zap.Logger
}

// NewHandler creates the kiosk handler. queue and s3 may be nil; the archive
// endpoints then report the feature as unavailable.
func NewHandler(store *sessions.Store, receiver *uploads.Receiver, encoder QREncoder, hub Broadcaster, q *queue.Queue, s3 *storage.S3, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		receiver: receiver,
		encoder:  encoder,
		hub:      hub,
		queue:    q,
		s3:       s3,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "OK", "message": "Video Kiosk API is running"})
}

// StartRecording handles POST /api/start-recording. No request body.
func (h *Handler) StartRecording(c *gin.Context) {
	sess := h.store.Create()
	h.hub.Broadcast(realtime.EventStartRecording, gin.H{"sessionId": sess.ID})
	h.logger.Info("recording started", zap.String("session_id", sess.ID))
	response.OK(c, gin.H{
		"success":   true,
		"sessionId": sess.ID,
		"message":   "Recording started",
	})
}

// StopRecording handles POST /api/stop-recording/:sessionId with an optional
// multipart "video" field. The session record is only mutated after the QR
// code has been rendered, so an encoder failure leaves it untouched and
// still in recording state.
func (h *Handler) StopRecording(c *gin.Context) {
	id := c.Param("sessionId")
	if _, ok := h.store.Get(id); !ok {
		response.NotFound(c, "Session not found")
		return
	}

	videoPath := ""
	file, err := c.FormFile("video")
	switch {
	case err != nil:
		// No file is tolerated: the QR still points at the session.
		h.logger.Info("no video uploaded, continuing", zap.String("session_id", id))
	default:
		videoPath, err = h.receiver.Store(file)
		if err != nil {
			if errors.Is(err, uploads.ErrNotVideo) || errors.Is(err, uploads.ErrTooLarge) {
				response.BadRequest(c, err.Error())
				return
			}
			h.logger.Error("store video failed", zap.String("session_id", id), zap.Error(err))
			response.Internal(c, "Failed to store video")
			return
		}
	}

	downloadURL := h.downloadURL(c, id)
	qrCode, err := h.encoder.Encode(downloadURL)
	if err != nil {
		h.removeVideo(videoPath)
		h.logger.Error("qr encode failed", zap.String("session_id", id), zap.Error(err))
		response.Internal(c, "Failed to generate QR code")
		return
	}

	sess, err := h.store.Update(id, func(s *models.Session) {
		now := time.Now()
		s.Status = models.SessionStatusCompleted
		s.EndTime = &now
		s.VideoPath = videoPath
		s.QRCode = qrCode
	})
	if err != nil {
		// Reaped while we were encoding: the file has no owner anymore.
		h.removeVideo(videoPath)
		response.NotFound(c, "Session not found")
		return
	}

	if h.queue != nil && sess.VideoPath != "" {
		if err := h.queue.EnqueueArchive(c.Request.Context(), queue.ArchivePayload{
			SessionID: sess.ID,
			VideoPath: sess.VideoPath,
		}); err != nil {
			h.logger.Warn("enqueue archive failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	h.hub.Broadcast(realtime.EventRecordingCompleted, gin.H{
		"sessionId":   sess.ID,
		"qrCode":      qrCode,
		"downloadUrl": downloadURL,
	})
	h.logger.Info("recording completed",
		zap.String("session_id", sess.ID),
		zap.Bool("has_video", sess.VideoPath != ""))

	response.OK(c, gin.H{
		"success":     true,
		"qrCode":      qrCode,
		"downloadUrl": downloadURL,
		"message":     "Recording completed and QR code generated",
	})
}

// Download handles GET /api/download/:sessionId.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("sessionId")
	sess, ok := h.store.Get(id)
	if !ok {
		response.NotFound(c, "Session not found")
		return
	}
	if sess.VideoPath == "" {
		response.NotFound(c, "Video not available yet")
		return
	}
	if _, err := os.Stat(sess.VideoPath); err != nil {
		response.NotFound(c, "Video file not found")
		return
	}
	c.FileAttachment(sess.VideoPath, "kiosk-video-"+id+".mp4")
}

// GetSession handles GET /api/session/:sessionId.
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.store.Get(c.Param("sessionId"))
	if !ok {
		response.NotFound(c, "Session not found")
		return
	}
	response.OK(c, sess)
}

// ArchiveDownloadURL handles GET /api/archive/:sessionId/download-url,
// returning a presigned URL for the off-site archived copy.
func (h *Handler) ArchiveDownloadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "Archive storage not configured")
		return
	}
	id := c.Param("sessionId")
	sess, ok := h.store.Get(id)
	if !ok {
		response.NotFound(c, "Session not found")
		return
	}
	if sess.ArchiveKey == "" {
		response.NotFound(c, "Video not archived yet")
		return
	}
	expire := h.s3.PresignExpire()
	url, err := h.s3.PresignDownloadURL(c.Request.Context(), sess.ArchiveKey, expire)
	if err != nil {
		h.logger.Error("presign archive download failed", zap.String("session_id", id), zap.Error(err))
		response.Internal(c, "Failed to generate download URL")
		return
	}
	response.OK(c, gin.H{"downloadUrl": url, "expiresIn": int(expire.Seconds())})
}

// downloadURL builds the absolute download URL for a session from the
// configured public base URL, or from the request's own scheme and host.
func (h *Handler) downloadURL(c *gin.Context, id string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/api/download/" + id
}

func (h *Handler) removeVideo(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("remove video failed", zap.String("path", path), zap.Error(err))
	}
}
