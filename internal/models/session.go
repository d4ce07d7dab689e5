package models

import "time"

// SessionStatus represents the recording lifecycle. A session starts at
// recording and transitions at most once to completed.
const (
	SessionStatusRecording = "recording"
	SessionStatusCompleted = "completed"
)

// Session is one kiosk recording-to-download transaction. The session store
// owns the canonical record; handlers only ever see snapshot copies.
type Session struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	VideoPath string     `json:"videoPath,omitempty"`
	QRCode    string     `json:"qrCode,omitempty"`
	// ArchiveKey is the S3 object key once the archive worker has mirrored
	// the video off-site. Empty until archival completes.
	ArchiveKey string `json:"archiveKey,omitempty"`
}
