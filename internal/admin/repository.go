// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type ContentStats struct {
	LiveUsers    int64 `db:"live_users"    json:"live_users"`
	DeletedUsers int64 `db:"deleted_users" json:"deleted_users"`
	Admins       int64 `db:"admins"        json:"admins"`
	LivePosts    int64 `db:"live_posts"    json:"live_posts"`
	DeletedPosts int64 `db:"deleted_posts" json:"deleted_posts"`
}

type StatsRepository interface {
	ContentStats(ctx context.Context) (ContentStats, error)
}

type statsRepository struct {
	tx core.Transactor
}

// NewStatsRepository reads counts inside one transaction so user and post
// totals come from the same snapshot of committed rows.
func NewStatsRepository(tx core.Transactor) StatsRepository {
	return &statsRepository{tx: tx}
}

func (r *statsRepository) ContentStats(ctx context.Context) (ContentStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL)     AS live_users,
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NOT NULL) AS deleted_users,
			(SELECT COUNT(*) FROM users
			 WHERE deleted_at IS NULL AND role = 'admin')             AS admins,
			(SELECT COUNT(*) FROM posts WHERE deleted_at IS NULL)     AS live_posts,
			(SELECT COUNT(*) FROM posts WHERE deleted_at IS NOT NULL) AS deleted_posts`

	var stats ContentStats
	err := r.tx.WithinTx(ctx, func(ctx context.Context, q core.DBTX) error {
		return q.GetContext(ctx, &stats, query)
	})
	if err != nil {
		return ContentStats{}, fmt.Errorf("content stats: %w", err)
	}

	return stats, nil
}
