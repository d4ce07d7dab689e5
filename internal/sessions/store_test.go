package sessions

import (
	"testing"
	"time"

	"github.com/video-kiosk/backend/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	store := NewStore()

	sess := store.Create()
	if sess.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if sess.Status != models.SessionStatusRecording {
		t.Fatalf("expected status recording, got %q", sess.Status)
	}
	if sess.StartTime.IsZero() {
		t.Fatal("expected start time to be set")
	}

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("expected session to be retrievable")
	}
	if got.ID != sess.ID {
		t.Fatalf("expected id %q, got %q", sess.ID, got.ID)
	}
}

func TestCreateUniqueIDs(t *testing.T) {
	store := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := store.Create()
		if seen[sess.ID] {
			t.Fatalf("duplicate session id %q", sess.ID)
		}
		seen[sess.ID] = true
	}
	if store.Len() != 100 {
		t.Fatalf("expected 100 sessions, got %d", store.Len())
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get("nope"); ok {
		t.Fatal("expected unknown id to be absent")
	}
}

func TestUpdateMutatesUnderLock(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	updated, err := store.Update(sess.ID, func(s *models.Session) {
		now := time.Now()
		s.Status = models.SessionStatusCompleted
		s.EndTime = &now
		s.VideoPath = "/tmp/video.mp4"
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %q", updated.Status)
	}
	if updated.EndTime == nil {
		t.Fatal("expected end time to be set")
	}

	got, _ := store.Get(sess.ID)
	if got.VideoPath != "/tmp/video.mp4" {
		t.Fatalf("expected video path to persist, got %q", got.VideoPath)
	}
}

func TestUpdateUnknownReturnsErrNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.Update("gone", func(s *models.Session) {
		s.Status = models.SessionStatusCompleted
	})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := NewStore()
	sess := store.Create()
	store.Delete(sess.ID)
	store.Delete(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("expected session to be gone")
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	got, _ := store.Get(sess.ID)
	got.Status = "tampered"

	fresh, _ := store.Get(sess.ID)
	if fresh.Status != models.SessionStatusRecording {
		t.Fatalf("snapshot mutation leaked into store: %q", fresh.Status)
	}
}
