// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/templates/postboard/internal/user"
)

type SessionResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginResponse struct {
	User    user.UserResponse `json:"user"`
	Session SessionResponse   `json:"session"`
	Created bool              `json:"created"`
}

func ToLoginResponse(res *LoginResult) LoginResponse {
	return LoginResponse{
		User: user.ToUserResponse(res.User),
		Session: SessionResponse{
			Token:     res.Session.Token,
			TokenType: "Bearer",
			ExpiresAt: res.Session.ExpiresAt,
		},
		Created: res.Created,
	}
}
