package processor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/aliskhannn/image-uploader/internal/config"
	"github.com/aliskhannn/image-uploader/internal/model"
)

// Processor derives the standard representations of an uploaded image.
// All derivatives are lossy WebP regardless of source format.
type Processor struct {
	cropSize   int
	inlineSize int
	quality    float32
}

// New creates a new Processor from the processing configuration.
func New(cfg config.Processing) *Processor {
	return &Processor{
		cropSize:   cfg.CropSize,
		inlineSize: cfg.InlineSize,
		quality:    cfg.Quality,
	}
}

// Process decodes data and produces all derivatives from the same decoded image.
func (p *Processor) Process(data []byte) (model.Derivatives, error) {
	// Decode into an image object, honoring EXIF orientation.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return model.Derivatives{}, fmt.Errorf("failed to decode image: %w", err)
	}

	full, err := p.encode(img)
	if err != nil {
		return model.Derivatives{}, fmt.Errorf("failed to encode webp: %w", err)
	}

	crop, err := p.encode(fit(img, p.cropSize))
	if err != nil {
		return model.Derivatives{}, fmt.Errorf("failed to encode crop: %w", err)
	}

	inline, err := p.encode(fit(img, p.inlineSize))
	if err != nil {
		return model.Derivatives{}, fmt.Errorf("failed to encode inline thumbnail: %w", err)
	}

	return model.Derivatives{
		WebP:   full,
		Crop:   crop,
		Inline: model.InlinePrefix + base64.StdEncoding.EncodeToString(inline),
	}, nil
}

// fit shrinks img to fit within size x size keeping the aspect ratio.
// Images that already fit are returned as is; imaging.Fit never upscales.
func fit(img image.Image, size int) image.Image {
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: p.quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
