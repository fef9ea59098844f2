// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRequest struct {
	Name        *string `json:"name,omitempty"         validate:"omitempty,min=1,max=100"`
	AccountName *string `json:"account_name,omitempty" validate:"omitempty,min=3,max=32,alphanum"`
	Email       *string `json:"email,omitempty"        validate:"omitempty,email,max=255"`
}

func (r UpdateUserRequest) ToPatch() Patch {
	return Patch{
		Name:        r.Name,
		AccountName: r.AccountName,
		Email:       r.Email,
	}
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	AccountName string     `json:"account_name"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type PublicUserResponse struct {
	AccountName string    `json:"account_name"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		AccountName: u.AccountName,
		Name:        u.Name,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		DeletedAt:   u.DeletedAt,
	}
}

func ToPublicUserResponse(u *User) PublicUserResponse {
	return PublicUserResponse{
		AccountName: u.AccountName,
		Name:        u.Name,
		CreatedAt:   u.CreatedAt,
	}
}
