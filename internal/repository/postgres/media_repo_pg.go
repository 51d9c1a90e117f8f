package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

type MediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepo(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, title *string, filePath string, mediaType domain.MediaType) (*domain.Media, error) {
	const query = `
        INSERT INTO media (title, file_path, media_type)
        VALUES ($1, $2, $3)
        RETURNING id, title, file_path, media_type, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, title, filePath, mediaType)
	var media domain.Media
	if err := row.StructScan(&media); err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *MediaRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	const query = `
        SELECT id, title, file_path, media_type, created_at
        FROM media
        WHERE id = $1
    `
	var media domain.Media
	if err := r.db.GetContext(ctx, &media, query, id); err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM media WHERE id = $1`, id)
}
