// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/postboard/internal/authz"
	"github.com/carterperez-dev/templates/postboard/internal/core"
	"github.com/carterperez-dev/templates/postboard/internal/user"
)

// UserDirectory is the slice of the user service that login needs.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	CreateUser(ctx context.Context, in user.CreateUserInput) (*user.User, error)
}

type StateStore interface {
	SaveState(ctx context.Context, state string) error
	ConsumeState(ctx context.Context, state string) (bool, error)
}

type Service struct {
	users    UserDirectory
	provider IdentityProvider
	sessions *SessionManager
	states   StateStore
}

func NewService(
	users UserDirectory,
	provider IdentityProvider,
	sessions *SessionManager,
	states StateStore,
) *Service {
	return &Service{
		users:    users,
		provider: provider,
		sessions: sessions,
		states:   states,
	}
}

// BeginLogin stores a single-use state value and returns the provider URL
// to redirect to.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	state, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("begin login: %w", err)
	}

	if err := s.states.SaveState(ctx, state); err != nil {
		return "", fmt.Errorf("begin login: %w", err)
	}

	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates state, exchanges code, resolves or creates the
// local user and issues a session.
func (s *Service) CompleteLogin(
	ctx context.Context,
	state, code string,
) (*LoginResult, error) {
	ok, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("complete login: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("complete login: unknown oauth state: %w", core.ErrUnauthorized)
	}

	ext, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	u, created, err := s.resolveUser(ctx, ext)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(authz.Identity{
		UserID: u.ID,
		Role:   u.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("complete login: %w", err)
	}

	slog.InfoContext(ctx, "session issued",
		"user_id", u.ID,
		"session_id", session.ID,
		"new_user", created,
	)

	return &LoginResult{User: u, Session: session, Created: created}, nil
}

func (s *Service) resolveUser(
	ctx context.Context,
	ext ExternalIdentity,
) (*user.User, bool, error) {
	existing, err := s.users.GetByGoogleID(ctx, ext.ExternalID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, false, fmt.Errorf("resolve user: %w", err)
	}

	googleID := ext.ExternalID
	created, err := s.users.CreateUser(ctx, user.CreateUserInput{
		Email:    ext.Email,
		Name:     ext.DisplayName,
		GoogleID: &googleID,
	})
	if err == nil {
		return created, true, nil
	}

	// A concurrent first login for the same Google account won the insert.
	if core.KindOf(err) == core.KindDuplicateKey && core.FieldOf(err) == "google_id" {
		existing, getErr := s.users.GetByGoogleID(ctx, ext.ExternalID)
		if getErr != nil {
			return nil, false, fmt.Errorf("resolve user: %w", getErr)
		}
		return existing, false, nil
	}

	return nil, false, err
}

// VerifySession checks token and reloads its user, so a deleted account is
// rejected and the role always reflects the stored row.
func (s *Service) VerifySession(
	ctx context.Context,
	token string,
) (authz.Identity, error) {
	identity, err := s.sessions.VerifySession(ctx, token)
	if err != nil {
		return authz.Identity{}, err
	}

	u, err := s.users.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return authz.Identity{}, fmt.Errorf(
				"verify session: user no longer active: %w",
				core.ErrTokenRevoked,
			)
		}
		return authz.Identity{}, fmt.Errorf("verify session: %w", err)
	}

	identity.Role = u.Role
	return identity, nil
}

// Logout revokes the presented session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*user.User, error) {
	return s.users.GetUser(ctx, userID)
}
