// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type Repository interface {
	Get(ctx context.Context, key Key, value string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id string, patch Patch) (*User, error)
	SetRole(ctx context.Context, id, role string) (*User, error)
	SoftDelete(ctx context.Context, id string) error
	ExistsByAccountName(ctx context.Context, accountName, excludeID string) (bool, error)
}

// RepositoryFactory binds a Repository to a transaction handle.
type RepositoryFactory func(q core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectColumns = `
		SELECT user_id, email, account_name, name, google_id, role,
		       created_at, updated_at, deleted_at
		FROM users`

func (r *repository) Get(
	ctx context.Context,
	key Key,
	value string,
) (*User, error) {
	var where string
	switch key {
	case KeyID:
		where = "WHERE user_id = $1"
	case KeyAccountName:
		where = "WHERE account_name = $1 AND deleted_at IS NULL"
	case KeyGoogleID:
		where = "WHERE google_id = $1 AND deleted_at IS NULL"
	default:
		return nil, core.Invalid("get user", "key", fmt.Sprintf("unsupported lookup key %q", key))
	}

	var user User
	err := r.db.GetContext(ctx, &user, selectColumns+"\n\t\t"+where, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", key, err)
	}

	return &user, nil
}

func (r *repository) Create(ctx context.Context, user *User) (*User, error) {
	if err := validateNew(user); err != nil {
		return nil, err
	}

	role := user.Role
	if role == "" {
		role = RoleUser
	}

	query := `
		INSERT INTO users (user_id, email, account_name, name, google_id, role)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.AccountName,
		user.Name,
		user.GoogleID,
		role,
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return nil, core.Duplicate("create user", field, err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return r.Get(ctx, KeyID, user.ID)
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch Patch,
) (*User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		if strings.TrimSpace(*value) == "" {
			return core.Invalid("update user", column, "must not be empty")
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		return nil
	}

	if err := add("name", patch.Name); err != nil {
		return nil, err
	}
	if err := add("account_name", patch.AccountName); err != nil {
		return nil, err
	}
	if err := add("email", patch.Email); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE user_id = $1 AND deleted_at IS NULL`,
		strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return nil, core.Duplicate("update user", field, err)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := requireRow(result, "update user"); err != nil {
		return nil, err
	}

	return r.Get(ctx, KeyID, id)
}

func (r *repository) SetRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return nil, fmt.Errorf("set user role: %w", err)
	}

	if err := requireRow(result, "set user role"); err != nil {
		return nil, err
	}

	return r.Get(ctx, KeyID, id)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return requireRow(result, "delete user")
}

func (r *repository) ExistsByAccountName(
	ctx context.Context,
	accountName, excludeID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE account_name = $1 AND deleted_at IS NULL AND user_id <> $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, accountName, excludeID); err != nil {
		return false, fmt.Errorf("check account name exists: %w", err)
	}

	return exists, nil
}

func validateNew(user *User) error {
	required := []struct {
		field string
		value string
	}{
		{"user_id", user.ID},
		{"email", user.Email},
		{"account_name", user.AccountName},
		{"name", user.Name},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return core.Invalid("create user", f.field, "is required")
		}
	}

	return nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

var constraintFields = map[string]string{
	"users_pkey":                  "user_id",
	"users_account_name_live_key": "account_name",
	"users_google_id_live_key":    "google_id",
}

func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}

	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return field, true
	}

	return pgErr.ConstraintName, true
}
