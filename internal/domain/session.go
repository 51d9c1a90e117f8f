package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Session is a logged-in client context. It is active while ExpireAt is nil;
// once ExpireAt is set the session stays terminated.
type Session struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	UserID    uuid.UUID          `db:"user_id" json:"user_id"`
	IPAddress *string            `db:"ip_address" json:"ip_address,omitempty"`
	Agent     types.NullJSONText `db:"agent" json:"agent"`
	ExpireAt  *time.Time         `db:"expire_at" json:"expire_at,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

func (s *Session) Active() bool {
	return s.ExpireAt == nil
}

// ClientInfo describes the client establishing a session.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Agent     map[string]any
}
