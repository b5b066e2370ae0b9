package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const keyRoot = "images"

// Stage is a lifecycle segment of the object key namespace.
type Stage string

const (
	StageRaw  Stage = "raw"  // unprocessed client upload
	StageWebP Stage = "webp" // full-size derivative
	StageCrop Stage = "crop" // size-bounded derivative
)

// ErrMalformedKey is returned when a key does not belong to the raw namespace.
var ErrMalformedKey = errors.New("malformed object key")

// ImageKey identifies one image across every lifecycle stage.
type ImageKey struct {
	App     string
	OwnerID int64
	ImageID uuid.UUID
}

// Key returns the object key of the image at the given stage:
//
//	images/{app}/raw/{owner}/{id}
//	images/{app}/webp/{owner}/{id}.webp
//	images/{app}/crop/{owner}/{id}.webp
func (k ImageKey) Key(stage Stage) string {
	key := fmt.Sprintf("%s/%s/%s/%d/%s", keyRoot, k.App, stage, k.OwnerID, k.ImageID)
	if stage != StageRaw {
		key += ".webp"
	}

	return key
}

// ParseRawKey is the inverse of ImageKey.Key(StageRaw).
func ParseRawKey(key string) (ImageKey, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 5 || parts[0] != keyRoot || parts[1] == "" || parts[2] != string(StageRaw) {
		return ImageKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}

	owner, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return ImageKey{}, fmt.Errorf("%w: owner id %q", ErrMalformedKey, parts[3])
	}

	id, err := uuid.Parse(parts[4])
	if err != nil {
		return ImageKey{}, fmt.Errorf("%w: image id %q", ErrMalformedKey, parts[4])
	}

	return ImageKey{App: parts[1], OwnerID: owner, ImageID: id}, nil
}
