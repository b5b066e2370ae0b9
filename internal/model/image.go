package model

import (
	"time"

	"github.com/google/uuid"
)

// InlinePrefix is prepended to the base64 payload of the inline thumbnail.
const InlinePrefix = "data:image/webp;base64,"

// Image is the durable record of a fully processed upload.
// It is written once, with every field set, after all derivatives exist in the store.
type Image struct {
	ID              uuid.UUID `json:"image_id"`
	WebPKey         string    `json:"webp_key"`         // full-size derivative
	CropKey         string    `json:"crop_key"`         // derivative bounded by the crop size
	InlineThumbnail *string   `json:"inline_thumbnail"` // data URI, nil until committed
	IsCreated       bool      `json:"is_created"`
	CreatedAt       time.Time `json:"created_at"`
}

// Derivatives holds the encoded representations produced from one raw upload.
type Derivatives struct {
	WebP   []byte
	Crop   []byte
	Inline string
}
