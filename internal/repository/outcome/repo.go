package outcome

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-uploader/internal/model"
)

var ErrOutcomeNotFound = errors.New("outcome not found")

// Repository keeps the latest processing outcome per image.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Save upserts the outcome of a processing run; the latest run wins,
// except that a stored success is never replaced.
func (r *Repository) Save(ctx context.Context, o model.Outcome) error {
	query := `
		INSERT INTO image_outcomes (image_id, object_key, status, kind, message, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (image_id) DO UPDATE
		SET object_key = EXCLUDED.object_key,
		    status = EXCLUDED.status,
		    kind = EXCLUDED.kind,
		    message = EXCLUDED.message,
		    finished_at = EXCLUDED.finished_at
		WHERE image_outcomes.status <> 'success'
	`

	_, err := r.db.Master.ExecContext(
		ctx, query, o.ImageID, o.Key, o.Status, string(o.Kind), o.Message, o.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save: failed to save outcome: %w", err)
	}

	return nil
}

// Get returns the latest outcome recorded for the image.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (model.Outcome, error) {
	query := `
		SELECT object_key, status, kind, message, finished_at
		FROM image_outcomes
		WHERE image_id = $1
	`

	var (
		o    model.Outcome
		kind string
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).
		Scan(&o.Key, &o.Status, &kind, &o.Message, &o.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Outcome{}, ErrOutcomeNotFound
		}

		return model.Outcome{}, fmt.Errorf("get: failed to get outcome: %w", err)
	}

	o.ImageID = id
	o.Kind = model.FailureKind(kind)

	return o, nil
}
