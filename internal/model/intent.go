package model

import (
	"time"

	"github.com/google/uuid"
)

// ImageDescriptor is a client-side image reference carrying only a client-local label.
type ImageDescriptor struct {
	Label    string `json:"js_id" binding:"required"`
	FileName string `json:"file_name,omitempty"` // informational, not used for keys
}

// IntentRequest asks for one upload slot per descriptor, owned by OwnerID in App.
type IntentRequest struct {
	OwnerID int64             `json:"object_id" binding:"required"`
	App     string            `json:"object_app" binding:"required"`
	Images  []ImageDescriptor `json:"images_meta" binding:"required,dive"`
}

// Intent is an issued, not yet consumed permission to upload a single raw image.
// It is never persisted.
type Intent struct {
	Label     string    `json:"js_id"`
	ImageID   uuid.UUID `json:"django_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
