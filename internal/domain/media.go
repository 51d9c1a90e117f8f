package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
)

type Media struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     *string   `db:"title" json:"title,omitempty"`
	FilePath  string    `db:"file_path" json:"file_path"`
	MediaType MediaType `db:"media_type" json:"media_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MediaTypeFor classifies a MIME content type.
func MediaTypeFor(contentType string) MediaType {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo
	default:
		return MediaTypeDocument
	}
}
