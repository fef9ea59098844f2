// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type CreateUserInput struct {
	Email       string
	AccountName *string
	Name        string
	GoogleID    *string
}

type Service struct {
	tx        core.Transactor
	repos     RepositoryFactory
	generator *AccountNameGenerator
}

func NewService(
	tx core.Transactor,
	repos RepositoryFactory,
	generator *AccountNameGenerator,
) *Service {
	if generator == nil {
		generator = NewAccountNameGenerator(DefaultAccountNameAttempts)
	}
	return &Service{
		tx:        tx,
		repos:     repos,
		generator: generator,
	}
}

// CreateUser inserts a user, generating an account name when none is given.
// A generated name that loses the insert race to a concurrent writer is
// replaced and the transaction retried; a caller-supplied name that is taken
// fails with a duplicate key error.
func (s *Service) CreateUser(
	ctx context.Context,
	in CreateUserInput,
) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.CreateUser")
	user, err := s.createUser(ctx, in)
	core.EndSpan(span, err)
	return user, core.ObserveUseCase("create_user", err)
}

func (s *Service) createUser(
	ctx context.Context,
	in CreateUserInput,
) (*User, error) {
	generated := in.AccountName == nil || strings.TrimSpace(*in.AccountName) == ""

	attempts := 1
	if generated {
		attempts = s.generator.MaxAttempts()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		user, err := s.createOnce(ctx, in, generated)
		if err == nil {
			return user, nil
		}

		if !generated ||
			!core.IsRetryable(err) ||
			core.FieldOf(err) != "account_name" {
			return nil, err
		}

		lastErr = err
		core.AccountNameCollisions.Inc()
		core.AddSpanEvent(ctx, "account_name.insert_race",
			attribute.Int("attempt", attempt),
		)
		slog.WarnContext(ctx, "generated account name lost insert race, retrying",
			"attempt", attempt,
		)
	}

	return nil, lastErr
}

func (s *Service) createOnce(
	ctx context.Context,
	in CreateUserInput,
	generated bool,
) (*User, error) {
	var created *User

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		repo := s.repos(q)

		var accountName string
		if generated {
			name, err := s.generator.Generate(ctx, repo)
			if err != nil {
				return err
			}
			accountName = name
		} else {
			accountName = strings.TrimSpace(*in.AccountName)
		}

		user, err := repo.Create(ctx, &User{
			ID:          core.GenerateID(),
			Email:       strings.ToLower(strings.TrimSpace(in.Email)),
			AccountName: accountName,
			Name:        strings.TrimSpace(in.Name),
			GoogleID:    in.GoogleID,
			Role:        RoleUser,
		})
		if err != nil {
			return err
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateUser applies patch. A new account name is checked against the live
// scope first; the unique index remains the final arbiter.
func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	patch Patch,
) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.UpdateUser")

	if patch.AccountName != nil {
		trimmed := strings.TrimSpace(*patch.AccountName)
		patch.AccountName = &trimmed
	}

	var updated *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		repo := s.repos(q)

		if patch.AccountName != nil {
			taken, err := repo.ExistsByAccountName(ctx, *patch.AccountName, id)
			if err != nil {
				return err
			}
			if taken {
				return core.Duplicate(
					"update user",
					"account_name",
					errors.New("account name already taken"),
				)
			}
		}

		user, err := repo.Update(ctx, id, patch)
		if err != nil {
			return err
		}

		updated = user
		return nil
	})

	core.EndSpan(span, err)
	if err != nil {
		return nil, core.ObserveUseCase("update_user", err)
	}

	return updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	ctx, span := core.StartSpan(ctx, "user.DeleteUser")

	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		return s.repos(q).SoftDelete(ctx, id)
	})

	core.EndSpan(span, err)
	if err != nil {
		return false, core.ObserveUseCase("delete_user", err)
	}

	return true, nil
}

// SetRole changes a user's role (admin only).
func (s *Service) SetRole(ctx context.Context, id, role string) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.SetRole")
	updated, err := s.setRole(ctx, id, role)
	core.EndSpan(span, err)
	return updated, core.ObserveUseCase("set_role", err)
}

func (s *Service) setRole(ctx context.Context, id, role string) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, core.Invalid("set role", "role", fmt.Sprintf("invalid role %q", role))
	}

	var updated *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		user, err := s.repos(q).SetRole(ctx, id, role)
		if err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GetUser resolves a live user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.get(ctx, KeyID, id)
	if err != nil {
		return nil, err
	}

	if user.IsDeleted() {
		return nil, core.ObserveUseCase("get_user", fmt.Errorf("get user: %w", core.ErrNotFound))
	}

	return user, nil
}

func (s *Service) GetByAccountName(
	ctx context.Context,
	accountName string,
) (*User, error) {
	return s.get(ctx, KeyAccountName, accountName)
}

func (s *Service) GetByGoogleID(
	ctx context.Context,
	googleID string,
) (*User, error) {
	return s.get(ctx, KeyGoogleID, googleID)
}

func (s *Service) get(ctx context.Context, key Key, value string) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.Get",
		attribute.String("key", string(key)),
	)
	found, err := s.lookup(ctx, key, value)
	core.EndSpan(span, err)
	return found, core.ObserveUseCase("get_user", err)
}

func (s *Service) lookup(ctx context.Context, key Key, value string) (*User, error) {
	if strings.TrimSpace(value) == "" {
		return nil, core.Invalid("get user", string(key), "is required")
	}

	var found *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		user, err := s.repos(q).Get(ctx, key, value)
		if err != nil {
			return err
		}
		found = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}
