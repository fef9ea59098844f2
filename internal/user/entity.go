// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID          string     `db:"user_id"`
	Email       string     `db:"email"`
	AccountName string     `db:"account_name"`
	Name        string     `db:"name"`
	GoogleID    *string    `db:"google_id"`
	Role        string     `db:"role"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Key names an indexed lookup column. KeyID sees soft-deleted rows; the
// alternate keys only resolve live rows.
type Key string

const (
	KeyID          Key = "user_id"
	KeyAccountName Key = "account_name"
	KeyGoogleID    Key = "google_id"
)

// Patch lists the mutable columns. A nil field is left untouched. None of
// these columns is nullable, so there is no "clear" form.
type Patch struct {
	Name        *string
	AccountName *string
	Email       *string
}

const accountNameBytes = 10
