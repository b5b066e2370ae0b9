package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-uploader/internal/model"
)

var (
	ErrImageNotFound = errors.New("image not found")
	// ErrImageExists is returned when a record with the same id is already committed.
	ErrImageExists = errors.New("image already exists")
)

// Repository stores committed image records in PostgreSQL.
// Records are written once and never updated.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a record with the given id has been committed.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM images WHERE image_id = $1)
	`

	var exists bool
	if err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists: failed to check image: %w", err)
	}

	return exists, nil
}

// Create inserts a fully populated record in a single statement.
// A record with the same id makes the insert a no-op and ErrImageExists is returned.
func (r *Repository) Create(ctx context.Context, img model.Image) (model.Image, error) {
	query := `
		INSERT INTO images (image_id, webp_key, crop_key, inline_thumbnail, is_created)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (image_id) DO NOTHING
		RETURNING created_at
	`

	var inline sql.NullString
	if img.InlineThumbnail != nil {
		inline = sql.NullString{String: *img.InlineThumbnail, Valid: true}
	}

	err := r.db.Master.QueryRowContext(
		ctx, query, img.ID, img.WebPKey, img.CropKey, inline, img.IsCreated,
	).Scan(&img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Image{}, ErrImageExists
		}

		return model.Image{}, fmt.Errorf("create: failed to save image: %w", err)
	}

	return img, nil
}

// Get retrieves a committed record by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (model.Image, error) {
	query := `
		SELECT webp_key, crop_key, inline_thumbnail, is_created, created_at
		FROM images
		WHERE image_id = $1
	`

	var (
		img    model.Image
		inline sql.NullString
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).
		Scan(&img.WebPKey, &img.CropKey, &inline, &img.IsCreated, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Image{}, ErrImageNotFound
		}

		return model.Image{}, fmt.Errorf("get: failed to get image: %w", err)
	}

	img.ID = id
	if inline.Valid {
		img.InlineThumbnail = &inline.String
	}

	return img, nil
}
