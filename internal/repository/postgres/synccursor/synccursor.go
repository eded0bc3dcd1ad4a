package synccursor

import (
	"context"
	"database/sql"
	"net/http"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/entity"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres"

	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetByStreamID(ctx context.Context, streamID string) (entity.SyncCursor, error) {
	var detail entity.SyncCursor

	err := r.NewSelect().Model(&detail).Where("stream_id = ?", streamID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.SyncCursor{}, postgres.ErrNotFound
	}
	if err != nil {
		return entity.SyncCursor{}, web.NewRequestError(errors.Wrap(err, "selecting sync cursor"), http.StatusInternalServerError)
	}

	return detail, nil
}

// Advance moves a stream's cursor. The row has single-writer discipline:
// only a fully successful tick calls this, so a plain upsert is enough.
func (r Repository) Advance(ctx context.Context, streamID, token string) error {
	query := `
		INSERT INTO sync_cursors (stream_id, token, last_sync_at)
		VALUES (?, ?, now())
		ON CONFLICT (stream_id) DO UPDATE SET
			token = EXCLUDED.token,
			last_sync_at = EXCLUDED.last_sync_at
	`

	if _, err := r.ExecContext(ctx, query, streamID, token); err != nil {
		return web.NewRequestError(errors.Wrap(err, "advancing sync cursor"), http.StatusInternalServerError)
	}

	return nil
}
