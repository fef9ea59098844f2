// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/postboard/internal/authz"
	"github.com/carterperez-dev/templates/postboard/internal/core"
)

// ListParams picks exactly one selector: All, or one of the owner fields.
type ListParams struct {
	All              bool
	UserID           string
	OwnerName        string
	OwnerAccountName string
	Limit            int
	Offset           int
}

func (p ListParams) filter() (Filter, error) {
	f := Filter{
		UserID:           strings.TrimSpace(p.UserID),
		OwnerName:        strings.TrimSpace(p.OwnerName),
		OwnerAccountName: strings.TrimSpace(p.OwnerAccountName),
	}

	n := f.selectors()
	if p.All {
		n++
	}

	switch {
	case n == 0:
		return Filter{}, core.Invalid("list posts", "selector", "one selector is required")
	case n > 1:
		return Filter{}, core.Invalid("list posts", "selector", "only one selector may be given")
	}

	if p.Limit < 1 || p.Limit > MaxListLimit {
		return Filter{}, core.Invalid(
			"list posts",
			"limit",
			fmt.Sprintf("must be between 1 and %d", MaxListLimit),
		)
	}
	if p.Offset < 0 {
		return Filter{}, core.Invalid("list posts", "offset", "must not be negative")
	}

	return f, nil
}

type Service struct {
	tx    core.Transactor
	repos RepositoryFactory
}

func NewService(tx core.Transactor, repos RepositoryFactory) *Service {
	return &Service{
		tx:    tx,
		repos: repos,
	}
}

func (s *Service) CreatePost(
	ctx context.Context,
	userID, title, description string,
) (*Post, error) {
	ctx, span := core.StartSpan(ctx, "post.CreatePost",
		attribute.String("user.id", userID),
	)

	var created *Post
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		post, err := s.repos(q).Create(ctx, &Post{
			ID:          core.GenerateID(),
			UserID:      userID,
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(description),
		})
		if err != nil {
			return err
		}
		created = post
		return nil
	})

	core.EndSpan(span, err)
	if err != nil {
		return nil, core.ObserveUseCase("create_post", err)
	}

	return created, nil
}

// GetPost resolves a live post by id.
func (s *Service) GetPost(ctx context.Context, id string) (*Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, core.Invalid("get post", "post_id", "is required")
	}

	var found *Post
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		post, err := s.repos(q).Get(ctx, KeyID, id)
		if err != nil {
			return err
		}
		found = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	if found.IsDeleted() {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}

	return found, nil
}

// LatestByUser returns the owner's most recent live post.
func (s *Service) LatestByUser(ctx context.Context, userID string) (*Post, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.Invalid("latest post", "user_id", "is required")
	}

	var found *Post
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		post, err := s.repos(q).Get(ctx, KeyUserID, userID)
		if err != nil {
			return err
		}
		found = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

func (s *Service) ListPosts(ctx context.Context, params ListParams) ([]Entry, error) {
	filter, err := params.filter()
	if err != nil {
		return nil, core.ObserveUseCase("list_posts", err)
	}

	var entries []Entry
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		list, err := s.repos(q).List(ctx, filter, params.Limit, params.Offset)
		if err != nil {
			return err
		}
		entries = list
		return nil
	})
	if err != nil {
		return nil, core.ObserveUseCase("list_posts", err)
	}

	return entries, nil
}

// UpdatePost applies patch when requesterID owns the post. The ownership
// check and the write share one transaction.
func (s *Service) UpdatePost(
	ctx context.Context,
	requesterID, postID string,
	patch Patch,
) (*Post, error) {
	ctx, span := core.StartSpan(ctx, "post.UpdatePost",
		attribute.String("post.id", postID),
	)

	var updated *Post
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		repo := s.repos(q)

		if err := authz.RequireOwner(ctx, repo, postID, requesterID); err != nil {
			return err
		}

		post, err := repo.Update(ctx, postID, patch)
		if err != nil {
			return err
		}
		updated = post
		return nil
	})

	core.EndSpan(span, err)
	if err != nil {
		return nil, core.ObserveUseCase("update_post", err)
	}

	return updated, nil
}

func (s *Service) DeletePost(
	ctx context.Context,
	requesterID, postID string,
) (bool, error) {
	ctx, span := core.StartSpan(ctx, "post.DeletePost",
		attribute.String("post.id", postID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		repo := s.repos(q)

		if err := authz.RequireOwner(ctx, repo, postID, requesterID); err != nil {
			return err
		}

		return repo.SoftDelete(ctx, postID)
	})

	core.EndSpan(span, err)
	if err != nil {
		return false, core.ObserveUseCase("delete_post", err)
	}

	return true, nil
}
