package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/schema"
)

// Source file naming: <Table>.csv and <Table>.parquet under the data
// directory, matching the canonical table names.
func (e *Engine) csvPath(table string) string {
	return filepath.Join(e.cfg.DataDir, table+".csv")
}

func (e *Engine) parquetPath(table string) string {
	return filepath.Join(e.cfg.DataDir, table+".parquet")
}

// EnsureViews creates or replaces one view per dataset table, preferring a
// parquet cache file over the raw CSV. Source column headings are folded
// to canonical names through the alias map, so exports with spellings like
// customer_id or quantity still expose the canonical schema. Returns
// per-table availability; a missing file is not an error since the dataset
// may be partially loaded.
func (e *Engine) EnsureViews(ctx context.Context, registry *schema.Registry) (map[string]bool, error) {
	created := make(map[string]bool, len(registry.TableNames()))

	for _, table := range registry.TableNames() {
		pq := e.parquetPath(table)
		csv := e.csvPath(table)

		switch {
		case fileExists(pq):
			if err := e.createView(ctx, table, "read_parquet(?)", pq); err != nil {
				return nil, err
			}
			created[table] = true
		case fileExists(csv):
			if err := e.createView(ctx, table, "read_csv_auto(?, HEADER=TRUE)", csv); err != nil {
				return nil, err
			}
			created[table] = true
		default:
			created[table] = false
		}
		e.logger.Debug("view ensured", zap.String("table", table), zap.Bool("available", created[table]))
	}

	e.bumpDataVersion()
	return created, nil
}

func (e *Engine) createView(ctx context.Context, table, reader, path string) error {
	cols, err := e.sourceColumns(ctx, reader, path)
	if err != nil {
		return fmt.Errorf("inspect source for %s: %w", table, err)
	}
	// DuckDB cannot prepare CREATE VIEW statements, so the path is
	// inlined as a quoted literal rather than bound as a parameter.
	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT %s FROM %s",
		table, canonicalSelectList(table, cols), strings.Replace(reader, "?", sqlStringLiteral(path), 1))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create view %s: %w", table, err)
	}
	return nil
}

// sourceColumns reads the column headings of a data file without scanning
// any rows.
func (e *Engine) sourceColumns(ctx context.Context, reader, path string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", reader), path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return cols, rows.Err()
}

// canonicalSelectList renders a projection that renames aliased source
// headings to their canonical column names and passes the rest through.
func canonicalSelectList(table string, cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, raw := range cols {
		quoted := `"` + strings.ReplaceAll(raw, `"`, `""`) + `"`
		canonical := schema.CanonicalColumnName(table, raw)
		if strings.EqualFold(canonical, raw) {
			parts = append(parts, quoted)
			continue
		}
		parts = append(parts, quoted+" AS "+canonical)
	}
	return strings.Join(parts, ", ")
}

// BuildParquetCache rewrites each available CSV into a parquet file next
// to it, folding aliased headings to canonical names on the way. The COPY
// here is engine-internal bootstrap, not user SQL, so it does not pass
// through the statement gateway.
func (e *Engine) BuildParquetCache(ctx context.Context, registry *schema.Registry) (map[string]bool, error) {
	built := make(map[string]bool, len(registry.TableNames()))

	for _, table := range registry.TableNames() {
		csv := e.csvPath(table)
		if !fileExists(csv) {
			built[table] = false
			continue
		}
		cols, err := e.sourceColumns(ctx, "read_csv_auto(?, HEADER=TRUE)", csv)
		if err != nil {
			return nil, fmt.Errorf("inspect source for %s: %w", table, err)
		}
		// DuckDB cannot prepare COPY statements, so both paths are
		// inlined as quoted literals rather than bound as parameters.
		stmt := fmt.Sprintf("COPY (SELECT %s FROM read_csv_auto(%s, HEADER=TRUE)) TO %s (FORMAT PARQUET)",
			canonicalSelectList(table, cols), sqlStringLiteral(csv), sqlStringLiteral(e.parquetPath(table)))
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("build parquet cache for %s: %w", table, err)
		}
		built[table] = true
		e.logger.Info("parquet cache built", zap.String("table", table))
	}
	return built, nil
}

// TableCounts returns the row count per table. A table whose view is
// missing or broken counts as zero.
func (e *Engine) TableCounts(ctx context.Context, registry *schema.Registry) map[string]int64 {
	counts := make(map[string]int64, len(registry.TableNames()))
	for _, table := range registry.TableNames() {
		var n int64
		row := e.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
		if err := row.Scan(&n); err != nil {
			counts[table] = 0
			continue
		}
		counts[table] = n
	}
	return counts
}

func sqlStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
