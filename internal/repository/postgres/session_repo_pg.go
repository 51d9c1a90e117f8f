package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

const sessionColumns = `id, user_id, ip_address, agent, expire_at, created_at`

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, userID uuid.UUID, ipAddress *string, agent []byte) (*domain.Session, error) {
	const query = `
        INSERT INTO user_session (user_id, ip_address, agent)
        VALUES ($1, $2, $3::jsonb)
        RETURNING ` + sessionColumns

	var agentArg *string
	if len(agent) > 0 {
		raw := string(agent)
		agentArg = &raw
	}
	row := r.db.QueryRowxContext(ctx, query, userID, ipAddress, agentArg)
	var session domain.Session
	if err := row.StructScan(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM user_session WHERE id = $1`
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// SoftDelete terminates an active session. Terminated sessions are never
// touched again, so expire_at keeps the first termination time.
func (r *SessionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE user_session SET expire_at = NOW()
        WHERE id = $1 AND expire_at IS NULL
    `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SessionRepository) SoftDeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `
        UPDATE user_session SET expire_at = NOW()
        WHERE id = ANY($1::uuid[]) AND expire_at IS NULL
    `
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	res, err := r.db.ExecContext(ctx, query, pq.Array(values))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepository) SoftDeleteByUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error) {
	const query = `
        UPDATE user_session SET expire_at = NOW()
        WHERE user_id = $1 AND expire_at IS NULL
          AND ($2::uuid IS NULL OR id <> $2::uuid)
    `
	res, err := r.db.ExecContext(ctx, query, userID, except)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM user_session
        WHERE user_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3
    `
	sessions := []domain.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM user_session WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, err
	}
	return total, nil
}
