package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
)

const userColumns = `id, email, first_name, last_name, country_code, image_id, password_hash, password_salt,
        is_active, is_staff, is_superuser, last_login, password_changed_at, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user ports.NewUser) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, first_name, last_name, country_code, password_hash, password_salt, is_staff, is_superuser)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.CountryCode,
		user.PasswordHash, user.PasswordSalt, user.IsStaff, user.IsSuperuser,
	)
	var created domain.User
	if err := row.StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email, firstName, lastName string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, first_name, last_name)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO UPDATE
        SET first_name = COALESCE(NULLIF(user_account.first_name, ''), EXCLUDED.first_name),
            last_name = COALESCE(NULLIF(user_account.last_name, ''), EXCLUDED.last_name),
            updated_at = NOW()
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, firstName, lastName)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE email = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE id = $1`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        ORDER BY created_at DESC, id
        LIMIT $1 OFFSET $2
    `
	users := []domain.User{}
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_account`); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ports.UserProfileUpdate) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            country_code = CASE WHEN $4::text IS NULL THEN country_code ELSE NULLIF($4::text, '') END,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, update.FirstName, update.LastName, update.CountryCode)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            password_changed_at = NOW(),
            updated_at = NOW()
        WHERE id = $1
    `
	return execAffectingOne(ctx, r.db, query, id, passwordHash, passwordSalt)
}

func (r *UserRepository) SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET image_id = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, mediaID)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET is_active = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, active)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE user_account SET last_login = NOW() WHERE id = $1`
	return execAffectingOne(ctx, r.db, query, id)
}

func execAffectingOne(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
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
