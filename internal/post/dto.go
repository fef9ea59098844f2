// AngelaMos | 2026
// dto.go

package post

import (
	"time"
)

const defaultListLimit = 20

type CreatePostRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=10000"`
}

type UpdatePostRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=10000"`
}

func (r UpdatePostRequest) ToPatch() Patch {
	return Patch{
		Title:       r.Title,
		Description: r.Description,
	}
}

type PostResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type EntryResponse struct {
	PostResponse
	AuthorName        string `json:"author_name"`
	AuthorAccountName string `json:"author_account_name"`
}

func ToPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		DeletedAt:   p.DeletedAt,
	}
}

func ToEntryResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = EntryResponse{
			PostResponse:      ToPostResponse(&entries[i].Post),
			AuthorName:        entries[i].AuthorName,
			AuthorAccountName: entries[i].AuthorAccountName,
		}
	}
	return out
}
