package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of result rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// Query executes one statement with positional parameters under the given
// timeout. A deadline hit surfaces as ErrEngineTimeout.
func (e *Engine) Query(ctx context.Context, sqlText string, params []any, timeout time.Duration) (*Result, error) {
	qctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(qctx, sqlText, params...)
	if err != nil {
		if isDeadline(err, qctx) {
			return nil, fmt.Errorf("%w: query exceeded %s", apperrors.ErrEngineTimeout, timeout)
		}
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		if isDeadline(err, qctx) {
			return nil, fmt.Errorf("%w: query exceeded %s", apperrors.ErrEngineTimeout, timeout)
		}
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	e.logger.Debug("query executed",
		zap.Int("rows", len(result.Rows)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// CachedQuery answers from the TTL cache when possible. Cache keys include
// the data version so a dataset refresh invalidates every entry.
func (e *Engine) CachedQuery(ctx context.Context, sqlText string, params []any, timeout time.Duration) (*Result, error) {
	key := fmt.Sprintf("%d|%s|%v", e.version.Load(), sqlText, params)
	if item := e.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	result, err := e.Query(ctx, sqlText, params, timeout)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, result, ttlcache.DefaultTTL)
	return result, nil
}

// ScalarInt runs an aggregate returning a single integer. NULL scans as
// zero.
func (e *Engine) ScalarInt(ctx context.Context, sqlText string, timeout time.Duration) (int64, error) {
	qctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	var n *int64
	if err := e.db.QueryRowContext(qctx, sqlText).Scan(&n); err != nil {
		if isDeadline(err, qctx) {
			return 0, fmt.Errorf("%w: aggregate exceeded %s", apperrors.ErrEngineTimeout, timeout)
		}
		return 0, fmt.Errorf("scalar query: %w", err)
	}
	if n == nil {
		return 0, nil
	}
	return *n, nil
}

func isDeadline(err error, ctx context.Context) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
