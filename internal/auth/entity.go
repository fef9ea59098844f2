// AngelaMos | 2026
// entity.go

package auth

import (
	"time"

	"github.com/carterperez-dev/templates/postboard/internal/user"
)

// ExternalIdentity is what the identity provider asserts about a person.
type ExternalIdentity struct {
	ExternalID  string
	Email       string
	DisplayName string
}

// Session is an issued, signed session token.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

func (s Session) TTL() time.Duration {
	return time.Until(s.ExpiresAt)
}

type LoginResult struct {
	User    *user.User
	Session Session
	Created bool
}
