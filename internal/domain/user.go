package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var countryCodePattern = regexp.MustCompile(`^\+[1-9]\d{0,2}$`)

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	CountryCode  *string    `db:"country_code" json:"country_code,omitempty"`
	ImageID      *uuid.UUID `db:"image_id" json:"image_id,omitempty"`
	PasswordHash []byte     `db:"password_hash" json:"-"`
	PasswordSalt []byte     `db:"password_salt" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	// PasswordChangedAt invalidates password flow tokens issued before it.
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can sign in with email and password.
// Accounts created through Google sign-in have no local credentials.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0 && len(u.PasswordSalt) > 0
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases the address and trims surrounding whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidCountryCode(code string) bool {
	return countryCodePattern.MatchString(code)
}
