// AngelaMos | 2026
// entity.go

package post

import (
	"time"
)

type Post struct {
	ID          string     `db:"post_id"`
	UserID      string     `db:"user_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Key names an indexed lookup column. KeyID sees soft-deleted rows; KeyUserID
// resolves the owner's most recent live post.
type Key string

const (
	KeyID     Key = "post_id"
	KeyUserID Key = "user_id"
)

// Patch: nil leaves the column unchanged.
type Patch struct {
	Title       *string
	Description *string
}

// Filter selects posts by owner. At most one field may be set; all empty
// means no filter.
type Filter struct {
	UserID           string
	OwnerName        string
	OwnerAccountName string
}

func (f Filter) selectors() int {
	n := 0
	for _, v := range []string{f.UserID, f.OwnerName, f.OwnerAccountName} {
		if v != "" {
			n++
		}
	}
	return n
}

const MaxListLimit = 100
