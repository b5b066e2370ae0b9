package image

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-uploader/internal/model"
)

type recordingService struct {
	tasks   []model.Task
	outcome model.Outcome
}

func (s *recordingService) ProcessImage(_ context.Context, task model.Task) model.Outcome {
	s.tasks = append(s.tasks, task)
	return s.outcome
}

func TestHandle(t *testing.T) {
	svc := &recordingService{outcome: model.Outcome{Status: model.OutcomeSuccess}}
	h := NewUploadedHandler(svc)
	id := uuid.New()

	err := h.Handle(context.Background(), kafka.Message{
		Key:   []byte(id.String()),
		Value: []byte(`{"key":"images/catalog/raw/42/` + id.String() + `","image_id":"` + id.String() + `"}`),
	})
	require.NoError(t, err)
	require.Len(t, svc.tasks, 1)
	assert.Equal(t, id, svc.tasks[0].ImageID)
}

func TestHandle_FailedOutcomeIsNotAnError(t *testing.T) {
	svc := &recordingService{outcome: model.Outcome{Status: model.OutcomeFailed, Kind: model.KindNotFound}}
	id := uuid.New()

	err := NewUploadedHandler(svc).Handle(context.Background(), kafka.Message{
		Value: []byte(`{"key":"images/catalog/raw/42/` + id.String() + `","image_id":"` + id.String() + `"}`),
	})
	assert.NoError(t, err)
}

func TestHandle_IDFromMessageKey(t *testing.T) {
	svc := &recordingService{outcome: model.Outcome{Status: model.OutcomeSuccess}}
	id := uuid.New()

	err := NewUploadedHandler(svc).Handle(context.Background(), kafka.Message{
		Key:   []byte(id.String()),
		Value: []byte(`{"key":"images/catalog/raw/42/` + id.String() + `"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, id, svc.tasks[0].ImageID)
}

func TestHandle_Malformed(t *testing.T) {
	svc := &recordingService{}

	err := NewUploadedHandler(svc).Handle(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
	assert.Empty(t, svc.tasks)
}
