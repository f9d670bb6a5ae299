package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// MediaTypeFor classifies a detected MIME type; ok is false for unsupported content.
func MediaTypeFor(mime string) (MediaType, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaImage, true
	case strings.HasPrefix(mime, "video/"):
		return MediaVideo, true
	case strings.HasPrefix(mime, "audio/"):
		return MediaAudio, true
	case mime == "application/pdf":
		return MediaDocument, true
	}
	return "", false
}

type MediaItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	MemberID    uuid.UUID `json:"member_id" db:"member_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	URL         string    `json:"url" db:"url"`
	ObjectKey   string    `json:"-" db:"object_key"`
	Type        MediaType `json:"type" db:"type"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	Caption     *string   `json:"caption,omitempty" db:"caption"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}
