package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-uploader/internal/config"
	"github.com/aliskhannn/image-uploader/internal/model"
)

// presigner mints time-limited upload URLs (e.g., MinIO presigned PUT).
type presigner interface {
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// observer records issued intents.
type observer interface {
	RecordIntents(app string, count int)
}

type nopObserver struct{}

func (nopObserver) RecordIntents(string, int) {}

// Service issues upload intents.
// It allocates ids and keys and signs URLs; it never writes objects or records.
type Service struct {
	presigner presigner
	observer  observer
	apps      map[string]struct{}
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates a new Service accepting uploads for the applications listed in cfg.
func NewService(p presigner, cfg config.Upload, o observer) *Service {
	apps := make(map[string]struct{}, len(cfg.Apps))
	for _, app := range cfg.Apps {
		apps[app] = struct{}{}
	}

	if o == nil {
		o = nopObserver{}
	}

	return &Service{
		presigner: p,
		observer:  o,
		apps:      apps,
		ttl:       cfg.URLTTL,
		now:       time.Now,
	}
}

// RequestIntents returns one intent per requested image, in request order.
// Any validation failure rejects the whole batch.
func (s *Service) RequestIntents(ctx context.Context, req model.IntentRequest) ([]model.Intent, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.ttl)
	intents := make([]model.Intent, 0, len(req.Images))

	for _, img := range req.Images {
		key := model.ImageKey{App: req.App, OwnerID: req.OwnerID, ImageID: uuid.New()}

		url, err := s.presigner.PresignPut(ctx, key.Key(model.StageRaw), s.ttl)
		if err != nil {
			return nil, fmt.Errorf("request intents: %w", err)
		}

		intents = append(intents, model.Intent{
			Label:     img.Label,
			ImageID:   key.ImageID,
			URL:       url,
			ExpiresAt: expiresAt,
		})
	}

	s.observer.RecordIntents(req.App, len(intents))

	return intents, nil
}

func (s *Service) validate(req model.IntentRequest) error {
	if req.OwnerID <= 0 {
		return model.Invalid("object_id", model.ErrMissingFields)
	}

	if req.App == "" {
		return model.Invalid("object_app", model.ErrMissingFields)
	}

	if _, ok := s.apps[req.App]; !ok {
		return model.Invalid("object_app", fmt.Errorf("%w: %s", model.ErrUnknownApp, req.App))
	}

	if len(req.Images) == 0 {
		return model.Invalid("images_meta", model.ErrEmptyBatch)
	}

	for i, img := range req.Images {
		if img.Label == "" {
			return model.Invalid(fmt.Sprintf("images_meta[%d].js_id", i), model.ErrMissingFields)
		}
	}

	return nil
}
