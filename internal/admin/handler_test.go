// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type fakeDB struct{ pingErr error }

func (f fakeDB) Ping(context.Context) error { return f.pingErr }
func (f fakeDB) Stats() sql.DBStats         { return sql.DBStats{OpenConnections: 3, InUse: 1} }

type fakeRedis struct{}

func (fakeRedis) Ping(context.Context) error    { return nil }
func (fakeRedis) PoolStats() *redis.PoolStats { return &redis.PoolStats{TotalConns: 4} }

type fakeContent struct {
	stats ContentStats
	err   error
}

func (f fakeContent) ContentStats(context.Context) (ContentStats, error) { return f.stats, f.err }

func TestSystemStats(t *testing.T) {
	h := NewHandler(Sources{
		Database: fakeDB{pingErr: errors.New("down")},
		Redis:    fakeRedis{},
		Content:  fakeContent{stats: ContentStats{LiveUsers: 2, LivePosts: 5}},
	})

	w := httptest.NewRecorder()
	h.GetSystemStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	assert.False(t, env.Data.Database.Healthy)
	assert.Equal(t, 3, env.Data.Database.Stats.OpenConnections)
	assert.True(t, env.Data.Redis.Healthy)
	assert.EqualValues(t, 4, env.Data.Redis.Stats.TotalConns)
	require.NotNil(t, env.Data.Content)
	assert.EqualValues(t, 5, env.Data.Content.LivePosts)
	assert.NotEmpty(t, env.Data.Runtime.GoVersion)
}

func TestSystemStatsOmitsFailedContent(t *testing.T) {
	h := NewHandler(Sources{Content: fakeContent{err: errors.New("timeout")}})

	w := httptest.NewRecorder()
	h.GetSystemStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"content"`)
}

func TestContentStatsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(Sources{}).GetContentStats(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	NewHandler(Sources{Content: fakeContent{err: errors.New("boom")}}).
		GetContentStats(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatsRepositoryReadsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewStatsRepository(core.NewTxProvider(sqlx.NewDb(db, "sqlmock"), time.Second))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("AS deleted_posts")).
		WillReturnRows(sqlmock.NewRows([]string{
			"live_users", "deleted_users", "admins", "live_posts", "deleted_posts",
		}).AddRow(10, 2, 1, 40, 7))
	mock.ExpectCommit()

	stats, err := repo.ContentStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ContentStats{
		LiveUsers: 10, DeletedUsers: 2, Admins: 1, LivePosts: 40, DeletedPosts: 7,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
