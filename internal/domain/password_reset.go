package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is a one-time code mailed to a user. ConsumedAt is set once,
// either on successful verification or when a newer code supersedes it.
type PasswordReset struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	CodeHash   []byte     `db:"code_hash" json:"-"`
	CodeSalt   []byte     `db:"code_salt" json:"-"`
	Attempts   int        `db:"attempts" json:"attempts"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
