// Package worker runs the background video archive loop.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/video-kiosk/backend/internal/models"
	"github.com/video-kiosk/backend/internal/sessions"
	"github.com/video-kiosk/backend/pkg/queue"
	"github.com/video-kiosk/backend/pkg/storage"
)

// Archiver processes archive jobs: stream the locally stored video to S3
// and record the object key on the session.
type Archiver struct {
	store  *sessions.Store
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewArchiver creates a video archive processor.
func NewArchiver(store *sessions.Store, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, s3: s3, queue: q, logger: logger}
}

// Process executes one archive job.
func (a *Archiver) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sess, ok := a.store.Get(payload.SessionID)
	if !ok {
		// Session reaped before the job ran; nothing left to archive.
		a.logger.Info("archive skipped, session gone", zap.String("session_id", payload.SessionID))
		return nil
	}
	if sess.ArchiveKey != "" {
		a.logger.Info("already archived", zap.String("session_id", sess.ID))
		return nil
	}

	f, err := os.Open(payload.VideoPath)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat video: %w", err)
	}

	key, err := a.s3.UploadVideo(ctx, payload.SessionID, f, info.Size())
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if _, err := a.store.Update(payload.SessionID, func(s *models.Session) {
		s.ArchiveKey = key
	}); err != nil {
		// Reaped mid-upload; remove the orphaned object.
		_ = a.s3.DeleteVideo(ctx, key)
		return nil
	}

	a.logger.Info("video archived",
		zap.String("session_id", payload.SessionID),
		zap.String("key", key),
		zap.Int64("size", info.Size()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := a.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if err := a.Process(ctx, job); err != nil {
			a.logger.Warn("archive job failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			_ = a.queue.Retry(ctx, job)
		}
	}
}
