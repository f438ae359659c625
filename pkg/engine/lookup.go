package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Horizon returns the latest order date in the dataset. Callers fall back
// to a configured date when the dataset is empty.
func (e *Engine) Horizon(ctx context.Context) (time.Time, error) {
	qctx, cancel := withTimeout(ctx, e.cfg.LookupTimeout())
	defer cancel()

	var horizon *time.Time
	row := e.db.QueryRowContext(qctx, "SELECT MAX(CAST(order_date AS DATE)) FROM Inventory")
	if err := row.Scan(&horizon); err != nil {
		return time.Time{}, fmt.Errorf("resolve data horizon: %w", err)
	}
	if horizon == nil {
		return time.Time{}, nil
	}
	return *horizon, nil
}

// CustomerIDByName resolves a customer name fragment to a CID. Matches
// name or email case-insensitively; ties break on lowest CID.
func (e *Engine) CustomerIDByName(ctx context.Context, name string) (string, bool, error) {
	qctx, cancel := withTimeout(ctx, e.cfg.LookupTimeout())
	defer cancel()

	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	row := e.db.QueryRowContext(qctx,
		"SELECT CID FROM Customer WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ? ORDER BY CID LIMIT 1",
		pattern, pattern)

	var cid string
	if err := row.Scan(&cid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup customer by name: %w", err)
	}
	return cid, true, nil
}

// SampleIDs returns one real order ID from Inventory and one customer ID
// from Customer for use in suggestion text. Each lookup degrades to an
// empty string independently when its table has no rows.
func (e *Engine) SampleIDs(ctx context.Context) (orderID, customerID string) {
	qctx, cancel := withTimeout(ctx, e.cfg.LookupTimeout())
	defer cancel()

	row := e.db.QueryRowContext(qctx, "SELECT IID FROM Inventory ORDER BY IID LIMIT 1")
	if err := row.Scan(&orderID); err != nil {
		orderID = ""
	}
	row = e.db.QueryRowContext(qctx, "SELECT CID FROM Customer ORDER BY CID LIMIT 1")
	if err := row.Scan(&customerID); err != nil {
		customerID = ""
	}
	return orderID, customerID
}

// TableExists reports whether a view is queryable.
func (e *Engine) TableExists(ctx context.Context, table string) bool {
	qctx, cancel := withTimeout(ctx, e.cfg.LookupTimeout())
	defer cancel()

	var n int64
	row := e.db.QueryRowContext(qctx, fmt.Sprintf("SELECT COUNT(*) FROM (SELECT 1 FROM %s LIMIT 1)", table))
	return row.Scan(&n) == nil
}
