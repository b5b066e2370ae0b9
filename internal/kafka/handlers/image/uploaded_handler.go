package image

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-uploader/internal/model"
)

// service defines the interface for processing accepted uploads.
type service interface {
	ProcessImage(ctx context.Context, task model.Task) model.Outcome
}

// UploadedHandler handles Kafka messages for accepted uploads.
type UploadedHandler struct {
	service service
}

// NewUploadedHandler creates a new handler with the given service.
func NewUploadedHandler(s service) *UploadedHandler {
	return &UploadedHandler{service: s}
}

// Handle decodes the task and runs derivative processing for it.
// Processing failures are recorded as outcomes by the service, so only
// an undecodable payload is reported as an error.
func (h *UploadedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var task model.Task
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		return fmt.Errorf("unmarshal task: %w", err)
	}

	if task.ImageID == uuid.Nil && len(msg.Key) > 0 {
		if id, err := uuid.ParseBytes(msg.Key); err == nil {
			task.ImageID = id
		}
	}

	outcome := h.service.ProcessImage(ctx, task)

	event := zlog.Logger.Info()
	if !outcome.Succeeded() {
		event = zlog.Logger.Warn().Str("kind", string(outcome.Kind))
	}

	event.
		Str("image_id", task.ImageID.String()).
		Str("key", task.Key).
		Str("status", outcome.Status).
		Msg(outcome.Message)

	return nil
}
