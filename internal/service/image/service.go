package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-uploader/internal/model"
	imagerepo "github.com/aliskhannn/image-uploader/internal/repository/image"
	"github.com/aliskhannn/image-uploader/internal/storage/object"
)

const contentTypeWebP = "image/webp"

// storage defines the object store operations used by the worker (e.g., MinIO).
type storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// records defines the interface for the image record store.
type records interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, img model.Image) (model.Image, error)
	Get(ctx context.Context, id uuid.UUID) (model.Image, error)
}

// outcomes keeps the terminal result of every processing run.
type outcomes interface {
	Save(ctx context.Context, o model.Outcome) error
	Get(ctx context.Context, id uuid.UUID) (model.Outcome, error)
}

// processor produces derivatives from raw image bytes.
type processor interface {
	Process(data []byte) (model.Derivatives, error)
}

// observer records processing runs.
type observer interface {
	RecordRun(outcome model.Outcome, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) RecordRun(model.Outcome, time.Duration) {}

// Service turns an accepted raw upload into a committed image record.
type Service struct {
	storage   storage
	records   records
	outcomes  outcomes
	processor processor
	observer  observer
	now       func() time.Time
}

// NewService creates a new Service.
func NewService(s storage, r records, o outcomes, p processor, obs observer) *Service {
	if obs == nil {
		obs = nopObserver{}
	}

	return &Service{
		storage:   s,
		records:   r,
		outcomes:  o,
		processor: p,
		observer:  obs,
		now:       time.Now,
	}
}

// ProcessImage runs the derivative pipeline for one accepted upload.
// Failures never propagate; every run is logged and counted, and stored
// as the image's outcome unless it would misreport a committed image.
func (s *Service) ProcessImage(ctx context.Context, task model.Task) model.Outcome {
	start := s.now()

	outcome := s.process(ctx, task)
	outcome.ImageID = task.ImageID
	outcome.Key = task.Key
	outcome.FinishedAt = s.now()

	if storable(outcome) {
		if err := s.outcomes.Save(ctx, outcome); err != nil {
			zlog.Logger.Err(err).
				Str("image_id", task.ImageID.String()).
				Msg("failed to save processing outcome")
		}
	} else {
		zlog.Logger.Warn().
			Str("image_id", task.ImageID.String()).
			Str("key", task.Key).
			Str("kind", string(outcome.Kind)).
			Msg(outcome.Message)
	}

	s.observer.RecordRun(outcome, outcome.FinishedAt.Sub(start))

	return outcome
}

// storable reports whether outcome may become the stored outcome of its image.
// A conflict means another run already committed the record, and that run's
// success must stand. A task without an image id has no row to store under.
func storable(outcome model.Outcome) bool {
	return outcome.ImageID != uuid.Nil && outcome.Kind != model.KindConflict
}

func (s *Service) process(ctx context.Context, task model.Task) (outcome model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failed(model.KindProcessing, fmt.Errorf("panic: %v", r))
		}
	}()

	if task.Key == "" || task.ImageID == uuid.Nil {
		return failed(model.KindValidation, model.ErrMissingFields)
	}

	key, err := model.ParseRawKey(task.Key)
	if err != nil {
		return failed(model.KindValidation, err)
	}
	if key.ImageID != task.ImageID {
		return failed(model.KindValidation, model.ErrKeyMismatch)
	}

	// Duplicate deliveries stop here, before any store mutation.
	exists, err := s.records.Exists(ctx, task.ImageID)
	if err != nil {
		return failed(model.KindPersistence, err)
	}
	if exists {
		return failed(model.KindConflict, model.ErrAlreadyExists)
	}

	raw, err := s.storage.Get(ctx, task.Key)
	if err != nil {
		if errors.Is(err, object.ErrObjectNotFound) {
			return failed(model.KindNotFound, fmt.Errorf("file not found: %w", err))
		}

		return failed(model.KindStore, err)
	}

	d, err := s.processor.Process(raw)
	if err != nil {
		return failed(model.KindProcessing, err)
	}

	webpKey, cropKey := key.Key(model.StageWebP), key.Key(model.StageCrop)

	if err := s.storage.Put(ctx, webpKey, d.WebP, contentTypeWebP); err != nil {
		return failed(model.KindStore, err)
	}

	if err := s.storage.Put(ctx, cropKey, d.Crop, contentTypeWebP); err != nil {
		return failed(model.KindStore, err)
	}

	inline := d.Inline
	_, err = s.records.Create(ctx, model.Image{
		ID:              task.ImageID,
		WebPKey:         webpKey,
		CropKey:         cropKey,
		InlineThumbnail: &inline,
		IsCreated:       true,
	})
	if err != nil {
		zlog.Logger.Warn().
			Str("image_id", task.ImageID.String()).
			Str("webp_key", webpKey).
			Str("crop_key", cropKey).
			Msg("record commit failed, derivatives orphaned")

		if errors.Is(err, imagerepo.ErrImageExists) {
			return failed(model.KindConflict, err)
		}

		return failed(model.KindPersistence, err)
	}

	// The record is committed; a leftover raw object does not fail the run.
	if err := s.storage.Delete(ctx, task.Key); err != nil {
		zlog.Logger.Warn().Err(err).
			Str("key", task.Key).
			Msg("failed to delete raw object")
	}

	return model.Outcome{Status: model.OutcomeSuccess, Message: "image processed"}
}

func failed(kind model.FailureKind, err error) model.Outcome {
	return model.Outcome{Status: model.OutcomeFailed, Kind: kind, Message: err.Error()}
}

// GetImage returns the committed record for id.
func (s *Service) GetImage(ctx context.Context, id uuid.UUID) (model.Image, error) {
	img, err := s.records.Get(ctx, id)
	if err != nil {
		return model.Image{}, fmt.Errorf("get image: %w", err)
	}

	return img, nil
}

// GetOutcome returns the latest processing outcome for id.
func (s *Service) GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error) {
	o, err := s.outcomes.Get(ctx, id)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("get outcome: %w", err)
	}

	return o, nil
}
