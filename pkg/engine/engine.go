// Package engine owns the embedded DuckDB database: view bootstrap over
// the raw dataset files, a parquet cache for fast scans, query execution
// with per-call deadlines, and a TTL result cache keyed by data version.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/config"
)

// Engine wraps a single in-process DuckDB instance. Safe for concurrent
// use; database/sql handles connection pooling over the driver.
type Engine struct {
	db      *sql.DB
	cfg     config.EngineConfig
	cache   *ttlcache.Cache[string, *Result]
	version atomic.Int64
	logger  *zap.Logger
}

// Open creates the DuckDB instance and starts the result cache janitor.
// Views are not created here; call EnsureViews before serving queries.
func Open(cfg config.EngineConfig, logger *zap.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	cache := ttlcache.New[string, *Result](
		ttlcache.WithTTL[string, *Result](cfg.CacheTTL()),
		ttlcache.WithDisableTouchOnHit[string, *Result](),
	)
	go cache.Start()

	e := &Engine{
		db:     db,
		cfg:    cfg,
		cache:  cache,
		logger: logger.Named("engine"),
	}
	e.version.Store(1)
	return e, nil
}

// Close stops the cache janitor and releases the database.
func (e *Engine) Close() error {
	e.cache.Stop()
	return e.db.Close()
}

// DataVersion returns the current dataset generation. It changes whenever
// the views are rebuilt, invalidating cached results.
func (e *Engine) DataVersion() int64 {
	return e.version.Load()
}

// bumpDataVersion advances the generation and drops all cached results.
func (e *Engine) bumpDataVersion() {
	e.version.Add(1)
	e.cache.DeleteAll()
}

// withTimeout derives a context bounded by d, keeping any earlier deadline
// already present on parent.
func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
