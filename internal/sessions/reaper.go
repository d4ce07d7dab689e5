package sessions

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// ArchiveRemover deletes the off-site archived copy of a session's video.
// Optional; nil leaves archives alone.
type ArchiveRemover interface {
	DeleteVideo(ctx context.Context, key string) error
}

// Reaper purges sessions older than the retention window, deleting their
// backing files first. It sweeps on a fixed interval until the context is
// cancelled.
type Reaper struct {
	store    *Store
	maxAge   time.Duration
	interval time.Duration
	archive  ArchiveRemover
	logger   *zap.Logger
}

// NewReaper creates a reaper over the given store.
func NewReaper(store *Store, maxAge, interval time.Duration, archive ArchiveRemover, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{store: store, maxAge: maxAge, interval: interval, archive: archive, logger: logger}
}

// Run sweeps on every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep removes every session whose start time is older than the retention
// window. It works on a snapshot taken at sweep start; Delete tolerates
// records that disappeared in the meantime.
func (r *Reaper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-r.maxAge)
	reaped := 0
	for _, sess := range r.store.Snapshot() {
		if !sess.StartTime.Before(cutoff) {
			continue
		}
		if sess.VideoPath != "" {
			if err := os.Remove(sess.VideoPath); err != nil && !os.IsNotExist(err) {
				// Keep going: the record still expires even if the file is stuck.
				r.logger.Warn("reaper: remove video failed",
					zap.String("session_id", sess.ID),
					zap.String("path", sess.VideoPath),
					zap.Error(err))
			}
		}
		if sess.ArchiveKey != "" && r.archive != nil {
			if err := r.archive.DeleteVideo(ctx, sess.ArchiveKey); err != nil {
				r.logger.Warn("reaper: delete archive failed",
					zap.String("session_id", sess.ID),
					zap.String("key", sess.ArchiveKey),
					zap.Error(err))
			}
		}
		r.store.Delete(sess.ID)
		reaped++
		r.logger.Info("session reaped",
			zap.String("session_id", sess.ID),
			zap.Time("start_time", sess.StartTime))
	}
	return reaped
}
