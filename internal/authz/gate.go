// AngelaMos | 2026
// gate.go

// Package authz holds the stateless authorization checks that gate entry
// into use cases: capability checks over a session identity and the
// ownership check over a post.
package authz

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const roleAdmin = "admin"

// Identity is what an established session vouches for.
type Identity struct {
	UserID    string
	Role      string
	SessionID string
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

func (i Identity) IsAdmin() bool {
	return i.IsAuthenticated() && i.Role == roleAdmin
}

func RequireAuthentication(id Identity) error {
	if !id.IsAuthenticated() {
		return fmt.Errorf("require authentication: %w", core.ErrUnauthorized)
	}
	return nil
}

func RequireAdmin(id Identity) error {
	if err := RequireAuthentication(id); err != nil {
		return err
	}
	if !id.IsAdmin() {
		return fmt.Errorf("require admin: %w", core.ErrForbidden)
	}
	return nil
}

// OwnershipReader reports, in one lookup, whether a live post exists and
// whether it belongs to userID.
type OwnershipReader interface {
	Ownership(ctx context.Context, postID, userID string) (exists, owned bool, err error)
}

// RequireOwner returns nil when userID owns the live post, ErrNotFound when
// no live post has postID, and ErrNotOwned when someone else owns it.
func RequireOwner(
	ctx context.Context,
	r OwnershipReader,
	postID, userID string,
) error {
	if postID == "" {
		return core.Invalid("check ownership", "post_id", "is required")
	}
	if userID == "" {
		return fmt.Errorf("check ownership: %w", core.ErrUnauthorized)
	}

	exists, owned, err := r.Ownership(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}

	if !exists {
		return fmt.Errorf("check ownership: post %s: %w", postID, core.ErrNotFound)
	}

	if !owned {
		return fmt.Errorf("check ownership: post %s: %w", postID, core.ErrNotOwned)
	}

	return nil
}

// IsOwnedBy is RequireOwner as a predicate. Lookup failures other than
// not-owned are returned as errors.
func IsOwnedBy(
	ctx context.Context,
	r OwnershipReader,
	postID, userID string,
) (bool, error) {
	err := RequireOwner(ctx, r, postID, userID)
	if err == nil {
		return true, nil
	}
	if core.KindOf(err) == core.KindNotOwned {
		return false, nil
	}
	return false, err
}
