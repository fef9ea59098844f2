// AngelaMos | 2026
// repository.go

package post

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
	Get(ctx context.Context, key Key, value string) (*Post, error)
	Create(ctx context.Context, post *Post) (*Post, error)
	Update(ctx context.Context, id string, patch Patch) (*Post, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error)
	Ownership(ctx context.Context, postID, userID string) (exists, owned bool, err error)
}

type RepositoryFactory func(q core.DBTX) Repository

// Entry is a listed post with its author's public names.
type Entry struct {
	Post
	AuthorName        string `db:"author_name"`
	AuthorAccountName string `db:"author_account_name"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(
	ctx context.Context,
	key Key,
	value string,
) (*Post, error) {
	var where string
	switch key {
	case KeyID:
		where = "WHERE post_id = $1"
	case KeyUserID:
		where = `WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`
	default:
		return nil, core.Invalid("get post", "key", fmt.Sprintf("unsupported lookup key %q", key))
	}

	query := `
		SELECT post_id, user_id, title, description,
		       created_at, updated_at, deleted_at
		FROM posts
		` + where

	var post Post
	err := r.db.GetContext(ctx, &post, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post by %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post by %s: %w", key, err)
	}

	return &post, nil
}

// Create inserts only when the owner is a live user; otherwise the owner is
// reported as not found.
func (r *repository) Create(ctx context.Context, post *Post) (*Post, error) {
	if err := validateNew(post); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO posts (post_id, user_id, title, description)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM users WHERE user_id = $2 AND deleted_at IS NULL
		)`

	result, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.Title,
		post.Description,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, core.Duplicate("create post", "post_id", err)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("create post: owner %s: %w", post.UserID, core.ErrNotFound)
	}

	return r.Get(ctx, KeyID, post.ID)
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch Patch,
) (*Post, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	for _, col := range []struct {
		name  string
		value *string
	}{
		{"title", patch.Title},
		{"description", patch.Description},
	} {
		if col.value == nil {
			continue
		}
		if strings.TrimSpace(*col.value) == "" {
			return nil, core.Invalid("update post", col.name, "must not be empty")
		}
		args = append(args, *col.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE posts
		SET %s
		WHERE post_id = $1 AND deleted_at IS NULL`,
		strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	if err := requireRow(result, "update post"); err != nil {
		return nil, err
	}

	return r.Get(ctx, KeyID, id)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE posts
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE post_id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return requireRow(result, "delete post")
}

// List returns live posts of live owners, newest first. Filter fields are
// mutually exclusive; the first non-empty one applies.
func (r *repository) List(
	ctx context.Context,
	filter Filter,
	limit, offset int,
) ([]Entry, error) {
	if limit < 1 {
		return nil, core.Invalid("list posts", "limit", "must be a positive integer")
	}
	if offset < 0 {
		return nil, core.Invalid("list posts", "offset", "must not be negative")
	}

	conditions := []string{"p.deleted_at IS NULL", "u.deleted_at IS NULL"}
	var args []any

	switch {
	case filter.UserID != "":
		args = append(args, filter.UserID)
		conditions = append(conditions, "p.user_id = $1")
	case filter.OwnerName != "":
		args = append(args, filter.OwnerName)
		conditions = append(conditions, "u.name = $1")
	case filter.OwnerAccountName != "":
		args = append(args, filter.OwnerAccountName)
		conditions = append(conditions, "u.account_name = $1")
	}

	query := fmt.Sprintf(`
		SELECT p.post_id, p.user_id, p.title, p.description,
		       p.created_at, p.updated_at, p.deleted_at,
		       u.name AS author_name, u.account_name AS author_account_name
		FROM posts p
		JOIN users u ON u.user_id = p.user_id
		WHERE %s
		ORDER BY p.created_at DESC, p.post_id DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), len(args)+1, len(args)+2)

	args = append(args, limit, offset)

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return entries, nil
}

func (r *repository) Ownership(
	ctx context.Context,
	postID, userID string,
) (bool, bool, error) {
	query := `
		SELECT
			EXISTS(
				SELECT 1 FROM posts
				WHERE post_id = $1 AND deleted_at IS NULL
			) AS found,
			EXISTS(
				SELECT 1 FROM posts
				WHERE post_id = $1 AND user_id = $2 AND deleted_at IS NULL
			) AS owned`

	var row struct {
		Found bool `db:"found"`
		Owned bool `db:"owned"`
	}
	if err := r.db.GetContext(ctx, &row, query, postID, userID); err != nil {
		return false, false, fmt.Errorf("post ownership: %w", err)
	}

	return row.Found, row.Owned, nil
}

func validateNew(post *Post) error {
	required := []struct {
		field string
		value string
	}{
		{"post_id", post.ID},
		{"user_id", post.UserID},
		{"title", post.Title},
		{"description", post.Description},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return core.Invalid("create post", f.field, "is required")
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

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
