// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type DatabaseSource interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

type RedisSource interface {
	Ping(ctx context.Context) error
	PoolStats() *redis.PoolStats
}

type Sources struct {
	Database DatabaseSource
	Redis    RedisSource
	Content  StatsRepository
}

type Handler struct {
	src Sources
}

func NewHandler(src Sources) *Handler {
	return &Handler{src: src}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/content", h.GetContentStats)
	})
}

// GetSystemStats gathers every section concurrently. A failing section is
// reported as unhealthy or omitted rather than failing the response.
func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	var resp SystemStatsResponse

	g, ctx := errgroup.WithContext(r.Context())

	if h.src.Database != nil {
		g.Go(func() error {
			resp.Database = DatabaseStatus{
				Healthy: h.src.Database.Ping(ctx) == nil,
				Stats:   dbPoolStats(h.src.Database.Stats()),
			}
			return nil
		})
	}

	if h.src.Redis != nil {
		g.Go(func() error {
			resp.Redis = RedisStatus{
				Healthy: h.src.Redis.Ping(ctx) == nil,
				Stats:   redisPoolStats(h.src.Redis.PoolStats()),
			}
			return nil
		})
	}

	if h.src.Content != nil {
		g.Go(func() error {
			stats, err := h.src.Content.ContentStats(ctx)
			if err != nil {
				slog.WarnContext(ctx, "content stats unavailable", "error", err)
				return nil
			}
			resp.Content = &stats
			return nil
		})
	}

	//nolint:errcheck // sections never return errors
	_ = g.Wait()

	resp.Runtime = readRuntimeStats()
	core.OK(w, resp)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.src.Database == nil {
		core.NotFound(w, "database stats")
		return
	}
	core.OK(w, dbPoolStats(h.src.Database.Stats()))
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	if h.src.Redis == nil {
		core.NotFound(w, "redis stats")
		return
	}
	core.OK(w, redisPoolStats(h.src.Redis.PoolStats()))
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) GetContentStats(w http.ResponseWriter, r *http.Request) {
	if h.src.Content == nil {
		core.NotFound(w, "content stats")
		return
	}

	stats, err := h.src.Content.ContentStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, stats)
}

func readRuntimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		MemSys:       mem.Sys,
		NumGC:        mem.NumGC,
	}
}

func dbPoolStats(s sql.DBStats) *DBPoolStats {
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
		MaxIdleClosed:      s.MaxIdleClosed,
		MaxIdleTimeClosed:  s.MaxIdleTimeClosed,
		MaxLifetimeClosed:  s.MaxLifetimeClosed,
	}
}

func redisPoolStats(s *redis.PoolStats) *RedisPoolStats {
	if s == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
		StaleConns: s.StaleConns,
	}
}

type SystemStatsResponse struct {
	Content  *ContentStats  `json:"content,omitempty"`
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
