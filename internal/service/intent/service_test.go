package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-uploader/internal/config"
	"github.com/aliskhannn/image-uploader/internal/model"
)

type fakePresigner struct {
	keys []string
	ttls []time.Duration
	err  error
}

func (f *fakePresigner) PresignPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.ttls = append(f.ttls, ttl)

	return "http://minio:9000/upload-media/" + key + "?X-Amz-Signature=sig", nil
}

type countingObserver struct {
	app   string
	count int
}

func (o *countingObserver) RecordIntents(app string, count int) {
	o.app = app
	o.count += count
}

func newService(p presigner, o observer) *Service {
	svc := NewService(p, config.Upload{Apps: []string{"catalog", "users"}, URLTTL: 120 * time.Second}, o)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }

	return svc
}

func TestRequestIntents_Example(t *testing.T) {
	p := &fakePresigner{}
	obs := &countingObserver{}
	svc := newService(p, obs)

	intents, err := svc.RequestIntents(context.Background(), model.IntentRequest{
		OwnerID: 42,
		App:     "catalog",
		Images:  []model.ImageDescriptor{{Label: "front"}},
	})
	require.NoError(t, err)
	require.Len(t, intents, 1)

	it := intents[0]
	assert.Equal(t, "front", it.Label)
	assert.NotEqual(t, uuid.Nil, it.ImageID)
	assert.Equal(t, []string{"images/catalog/raw/42/" + it.ImageID.String()}, p.keys)
	assert.Equal(t, []time.Duration{120 * time.Second}, p.ttls)
	assert.True(t, strings.Contains(it.URL, p.keys[0]))
	assert.Equal(t, time.Date(2026, 5, 1, 10, 2, 0, 0, time.UTC), it.ExpiresAt)
	assert.Equal(t, "catalog", obs.app)
	assert.Equal(t, 1, obs.count)
}

func TestRequestIntents_OnePerItemDistinctOrdered(t *testing.T) {
	p := &fakePresigner{}
	svc := newService(p, nil)

	labels := []string{"a", "b", "c", "d", "e"}
	req := model.IntentRequest{OwnerID: 7, App: "users"}
	for _, l := range labels {
		req.Images = append(req.Images, model.ImageDescriptor{Label: l})
	}

	intents, err := svc.RequestIntents(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, intents, len(labels))

	seen := make(map[uuid.UUID]struct{})
	for i, it := range intents {
		assert.Equal(t, labels[i], it.Label)
		seen[it.ImageID] = struct{}{}
	}
	assert.Len(t, seen, len(labels))
	assert.Len(t, p.keys, len(labels))
}

func TestRequestIntents_Validation(t *testing.T) {
	cases := []struct {
		name  string
		req   model.IntentRequest
		field string
		err   error
	}{
		{
			name:  "missing owner",
			req:   model.IntentRequest{App: "catalog", Images: []model.ImageDescriptor{{Label: "x"}}},
			field: "object_id",
			err:   model.ErrMissingFields,
		},
		{
			name:  "missing app",
			req:   model.IntentRequest{OwnerID: 1, Images: []model.ImageDescriptor{{Label: "x"}}},
			field: "object_app",
			err:   model.ErrMissingFields,
		},
		{
			name:  "unknown app",
			req:   model.IntentRequest{OwnerID: 1, App: "billing", Images: []model.ImageDescriptor{{Label: "x"}}},
			field: "object_app",
			err:   model.ErrUnknownApp,
		},
		{
			name:  "empty batch",
			req:   model.IntentRequest{OwnerID: 1, App: "catalog"},
			field: "images_meta",
			err:   model.ErrEmptyBatch,
		},
		{
			name:  "missing label",
			req:   model.IntentRequest{OwnerID: 1, App: "catalog", Images: []model.ImageDescriptor{{Label: "x"}, {}}},
			field: "images_meta[1].js_id",
			err:   model.ErrMissingFields,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePresigner{}
			_, err := newService(p, nil).RequestIntents(context.Background(), tc.req)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, p.keys, "no url is signed for a rejected batch")
		})
	}
}

func TestRequestIntents_PresignFailure(t *testing.T) {
	boom := errors.New("minio unavailable")
	_, err := newService(&fakePresigner{err: boom}, nil).RequestIntents(context.Background(), model.IntentRequest{
		OwnerID: 1,
		App:     "catalog",
		Images:  []model.ImageDescriptor{{Label: "x"}},
	})
	assert.ErrorIs(t, err, boom)
}
