package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

const passwordResetColumns = `id, user_id, code_hash, code_salt, attempts, expires_at, consumed_at, created_at`

type PasswordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepo(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	const query = `
        INSERT INTO password_reset (user_id, code_hash, code_salt, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + passwordResetColumns

	row := r.db.QueryRowxContext(ctx, query, userID, codeHash, codeSalt, expiresAt)
	var reset domain.PasswordReset
	if err := row.StructScan(&reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error) {
	const query = `
        SELECT ` + passwordResetColumns + `
        FROM password_reset
        WHERE user_id = $1 AND consumed_at IS NULL AND expires_at >= $2
        ORDER BY created_at DESC
        LIMIT 1
    `
	var reset domain.PasswordReset
	if err := r.db.GetContext(ctx, &reset, query, userID, now); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE password_reset SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PasswordResetRepository) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE password_reset
        SET consumed_at = NOW()
        WHERE id = $1 AND consumed_at IS NULL
    `
	return execAffectingOne(ctx, r.db, query, id)
}

func (r *PasswordResetRepository) ConsumeByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE password_reset
        SET consumed_at = NOW()
        WHERE user_id = $1 AND consumed_at IS NULL
    `
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
