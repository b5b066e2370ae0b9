package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-uploader/internal/api/respond"
	"github.com/aliskhannn/image-uploader/internal/model"
	imagerepo "github.com/aliskhannn/image-uploader/internal/repository/image"
	outcomerepo "github.com/aliskhannn/image-uploader/internal/repository/outcome"
)

// intentService issues upload intents.
type intentService interface {
	RequestIntents(ctx context.Context, req model.IntentRequest) ([]model.Intent, error)
}

// uploadService admits uploaded objects for processing.
type uploadService interface {
	ConfirmUpload(ctx context.Context, signedURL string, imageID uuid.UUID) error
}

// imageService exposes committed records and processing outcomes.
type imageService interface {
	GetImage(ctx context.Context, id uuid.UUID) (model.Image, error)
	GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error)
}

// Handler provides HTTP handlers for upload and image endpoints.
type Handler struct {
	intents intentService
	uploads uploadService
	images  imageService
}

// NewHandler creates a new Handler with the given services.
func NewHandler(i intentService, u uploadService, img imageService) *Handler {
	return &Handler{intents: i, uploads: u, images: img}
}

// IntentsResult is the body of a successful intent request.
// It is not wrapped in respond.Success: upload clients read success and
// images_response at the top level.
type IntentsResult struct {
	Success bool           `json:"success"`
	Images  []model.Intent `json:"images_response"`
}

// ConfirmRequest identifies an uploaded object. DjangoID is accepted as an alias of ImageID.
type ConfirmRequest struct {
	PresignedURL string `json:"presigned_url"`
	ImageID      string `json:"image_id"`
	DjangoID     string `json:"django_id"`
}

// RequestIntents issues one presigned upload URL per requested image.
func (h *Handler) RequestIntents(c *ginext.Context) {
	var req model.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("invalid intent request")
		respond.Invalid(c, "body", err)
		return
	}

	intents, err := h.intents.RequestIntents(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, IntentsResult{Success: true, Images: intents})
}

// ConfirmUpload accepts a finished upload for processing.
func (h *Handler) ConfirmUpload(c *ginext.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("invalid confirm request")
		respond.Invalid(c, "body", err)
		return
	}

	raw := req.ImageID
	if raw == "" {
		raw = req.DjangoID
	}

	id := uuid.Nil
	if raw != "" {
		var err error
		if id, err = uuid.Parse(raw); err != nil {
			respond.Invalid(c, "django_id", fmt.Errorf("invalid id: %v", err))
			return
		}
	}

	if err := h.uploads.ConfirmUpload(c.Request.Context(), req.PresignedURL, id); err != nil {
		writeError(c, err)
		return
	}

	respond.NoContent(c)
}

// GetImage returns the committed record for an image.
func (h *Handler) GetImage(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	img, err := h.images.GetImage(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond.OK(c, img)
}

// GetStatus returns the latest processing outcome for an image.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	o, err := h.images.GetOutcome(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond.OK(c, o)
}

func parseID(c *ginext.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Invalid(c, "id", fmt.Errorf("invalid id: %v", err))
		return uuid.Nil, false
	}

	return id, true
}

// writeError maps service errors to HTTP responses.
func writeError(c *ginext.Context, err error) {
	var verr *model.ValidationError

	switch {
	case errors.As(err, &verr):
		respond.Invalid(c, verr.Field, verr.Err)
	case errors.Is(err, model.ErrAlreadyExists), errors.Is(err, model.ErrNotUploaded):
		respond.Fail(c, http.StatusBadRequest, err)
	case errors.Is(err, imagerepo.ErrImageNotFound), errors.Is(err, outcomerepo.ErrOutcomeNotFound):
		respond.Fail(c, http.StatusNotFound, errors.New("image not found"))
	default:
		zlog.Logger.Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		respond.Fail(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
