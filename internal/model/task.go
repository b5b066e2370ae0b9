package model

import "github.com/google/uuid"

// Task represents an accepted upload that will be sent to the queue for derivative processing.
type Task struct {
	Key     string    `json:"key"`      // raw object key
	ImageID uuid.UUID `json:"image_id"` // record id allocated by the intent broker
}
