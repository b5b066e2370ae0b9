package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-uploader/internal/metrics"
	"github.com/aliskhannn/image-uploader/internal/model"
)

// records reports whether an image record has already been committed.
type records interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// storage checks raw objects in the upload bucket.
type storage interface {
	Exists(ctx context.Context, key string) (bool, error)
	Bucket() string
}

// producer defines the interface for enqueueing tasks into a message broker (e.g., Kafka).
type producer interface {
	Produce(ctx context.Context, task model.Task) error
}

// observer records confirmation results.
type observer interface {
	RecordConfirmation(result string)
}

type nopObserver struct{}

func (nopObserver) RecordConfirmation(string) {}

// Service admits uploaded raw objects for derivative processing.
// Admission is a one-shot check, not a lock.
type Service struct {
	records  records
	storage  storage
	producer producer
	observer observer
}

// NewService creates a new Service.
func NewService(r records, s storage, p producer, o observer) *Service {
	if o == nil {
		o = nopObserver{}
	}

	return &Service{records: r, storage: s, producer: p, observer: o}
}

// ConfirmUpload verifies that the object behind signedURL was uploaded and has not
// been processed yet, then enqueues it. It does not wait for processing.
func (s *Service) ConfirmUpload(ctx context.Context, signedURL string, imageID uuid.UUID) error {
	err := s.confirm(ctx, signedURL, imageID)
	s.observer.RecordConfirmation(result(err))

	return err
}

func (s *Service) confirm(ctx context.Context, signedURL string, imageID uuid.UUID) error {
	if signedURL == "" || imageID == uuid.Nil {
		return model.Invalid("fields", model.ErrMissingFields)
	}

	exists, err := s.records.Exists(ctx, imageID)
	if err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	if exists {
		return model.ErrAlreadyExists
	}

	key, err := KeyFromURL(signedURL, s.storage.Bucket())
	if err != nil {
		return model.Invalid("presigned_url", err)
	}

	parsed, err := model.ParseRawKey(key)
	if err != nil {
		return model.Invalid("presigned_url", fmt.Errorf("%w: %v", model.ErrInvalidURL, err))
	}
	if parsed.ImageID != imageID {
		return model.Invalid("django_id", model.ErrKeyMismatch)
	}

	uploaded, err := s.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	if !uploaded {
		return model.ErrNotUploaded
	}

	if err := s.producer.Produce(ctx, model.Task{Key: key, ImageID: imageID}); err != nil {
		return fmt.Errorf("confirm upload: failed to enqueue task: %w", err)
	}

	return nil
}

// KeyFromURL extracts the object key from a path-style presigned URL:
// the scheme, host and query are dropped together with the leading bucket segment.
func KeyFromURL(signedURL, bucket string) (string, error) {
	u, err := url.Parse(signedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidURL, err)
	}

	bucketName, key, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: no object key in path", model.ErrInvalidURL)
	}
	if bucketName != bucket {
		return "", fmt.Errorf("%w: unexpected bucket %q", model.ErrInvalidURL, bucketName)
	}

	return key, nil
}

func result(err error) string {
	var verr *model.ValidationError

	switch {
	case err == nil:
		return metrics.ConfirmAccepted
	case errors.As(err, &verr):
		return metrics.ConfirmInvalid
	case errors.Is(err, model.ErrAlreadyExists):
		return metrics.ConfirmConflict
	case errors.Is(err, model.ErrNotUploaded):
		return metrics.ConfirmNotUploaded
	default:
		return metrics.ConfirmError
	}
}
