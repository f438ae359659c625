package sqlguard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/schema"
)

// forbiddenTokens are rejected anywhere in the statement text. This is a
// blunt substring check: it also rejects safe SQL that merely contains one
// of these as a value. That tradeoff favors safety.
var forbiddenTokens = []string{
	"--", "/*", "*/",
	"ATTACH", "DETACH", "PRAGMA", "COPY",
	"INSERT", "UPDATE", "DELETE", "ALTER", "DROP",
	"CREATE", "REPLACE", "TRUNCATE", "CALL", "SET",
}

// exemptIdentifiers are accepted without resolving against the registry.
// current_date shows up in LLM-generated interval arithmetic.
var exemptIdentifiers = map[string]bool{
	"current_date": true,
}

var (
	qualifiedRefPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)`)
	tableRefPattern     = regexp.MustCompile(`(?i)\b(from|join)\s+([A-Za-z_"` + "`" + `][\w"` + "`" + `\.]*)`)
	limitPattern        = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

	// dateadd('day', -7, col) is a vendor spelling some models emit; rewrite
	// it to interval arithmetic the engine accepts.
	dateAddPattern = regexp.MustCompile(`(?i)\bdateadd\s*\(\s*'?(\w+)'?\s*,\s*(-?\d+)\s*,\s*([^()]+?)\s*\)`)
)

// ValidatedQuery is the only thing the rest of the system is allowed to
// execute. SQL is a single SELECT/WITH statement with exactly one LIMIT
// clause at or under the ceiling; Tables is the sorted, de-duplicated set
// of canonical tables referenced, used for provenance reporting.
type ValidatedQuery struct {
	SQL    string
	Tables []string
	Params []any
}

// Gateway validates SQL against the schema registry. Stateless and safe for
// concurrent use.
type Gateway struct {
	registry *schema.Registry
}

// NewGateway creates a gateway bound to the given registry.
func NewGateway(registry *schema.Registry) *Gateway {
	return &Gateway{registry: registry}
}

// Validate runs the full safety pipeline and returns the rewritten query.
// Every violation is reported as an apperrors.ErrUnsafeSQL wrap; the SQL
// must not be executed when an error is returned.
func (g *Gateway) Validate(sqlText string, params []any, maxLimit int) (*ValidatedQuery, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, fmt.Errorf("%w: statement is empty", apperrors.ErrUnsafeSQL)
	}

	normalized, err := normalizeStatement(sqlText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnsafeSQL, err)
	}

	upper := strings.ToUpper(normalized)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("%w: only SELECT statements are allowed", apperrors.ErrUnsafeSQL)
	}

	// Normalize vendor function spellings before keyword inspection. The
	// rewrite only rearranges existing identifiers and digits, so it cannot
	// introduce a forbidden token.
	normalized = normalizeVendorFunctions(normalized)
	upper = strings.ToUpper(normalized)

	for _, token := range forbiddenTokens {
		if strings.Contains(upper, token) {
			return nil, fmt.Errorf("%w: statement contains forbidden token %q", apperrors.ErrUnsafeSQL, token)
		}
	}

	if err := g.checkColumnReferences(normalized); err != nil {
		return nil, err
	}

	tables, err := g.referencedTables(normalized)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no known tables referenced", apperrors.ErrUnsafeSQL)
	}

	if results := CheckAllParameters(params); len(results) > 0 {
		return nil, fmt.Errorf("%w: parameter %d looks like SQL injection (fingerprint %s)",
			apperrors.ErrUnsafeSQL, results[0].ParamIndex, results[0].Fingerprint)
	}

	return &ValidatedQuery{
		SQL:    EnforceLimit(normalized, maxLimit),
		Tables: tables,
		Params: params,
	}, nil
}

// checkColumnReferences verifies every table.column occurrence against the
// registry. Unqualified references to known columns, and reserved
// identifiers such as current_date, are exempt; this avoids false positives
// from constructs like EXTRACT(year FROM order_date).
func (g *Gateway) checkColumnReferences(sqlText string) error {
	for _, m := range qualifiedRefPattern.FindAllStringSubmatch(sqlText, -1) {
		table, column := m[1], m[2]
		if exemptIdentifiers[strings.ToLower(table)] {
			continue
		}
		if _, ok := g.registry.Lookup(table); !ok {
			// The left side may itself be a known column inside a date-part
			// expression rather than a table qualifier.
			if g.registry.KnownColumn(table) {
				continue
			}
			return fmt.Errorf("%w: unknown table in reference %s.%s", apperrors.ErrUnsafeSQL, table, column)
		}
		if !g.registry.AllowedColumn(table, column) {
			return fmt.Errorf("%w: unknown column in reference %s.%s", apperrors.ErrUnsafeSQL, table, column)
		}
	}
	return nil
}

// referencedTables collects canonical table names from FROM/JOIN clauses.
// A reference to a table outside the registry is a violation.
func (g *Gateway) referencedTables(sqlText string) ([]string, error) {
	var found []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(sqlText, -1) {
		identifier := stripIdentifier(m[2])
		if identifier == "" {
			continue // subquery
		}
		canonical, ok := g.registry.CanonicalTableName(identifier)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported table referenced: %s", apperrors.ErrUnsafeSQL, identifier)
		}
		found = append(found, canonical)
	}
	return g.registry.SortedTableSet(found), nil
}

// stripIdentifier unwraps quotes, aliases, and schema prefixes from a
// FROM/JOIN operand. Returns "" for subqueries.
func stripIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "(") {
		return ""
	}
	value = strings.Trim(value, "\"`")
	if i := strings.IndexAny(value, " \t"); i >= 0 {
		value = value[:i]
	}
	if i := strings.LastIndexByte(value, '.'); i >= 0 {
		value = value[i+1:]
	}
	return strings.Trim(value, "\"`")
}

// normalizeVendorFunctions rewrites dateadd(unit, n, expr) into
// (expr + INTERVAL 'n' unit).
func normalizeVendorFunctions(sqlText string) string {
	return dateAddPattern.ReplaceAllString(sqlText, `($3 + INTERVAL '$2' $1)`)
}

// EnforceLimit caps the statement's LIMIT at maxLimit. An existing larger
// LIMIT is rewritten down; a missing LIMIT is appended. Exactly one LIMIT
// clause is present afterward.
func EnforceLimit(sqlText string, maxLimit int) string {
	if m := limitPattern.FindStringSubmatch(sqlText); m != nil {
		val, err := strconv.Atoi(m[1])
		if err == nil && val > maxLimit {
			return limitPattern.ReplaceAllString(sqlText, fmt.Sprintf("LIMIT %d", maxLimit))
		}
		return sqlText
	}
	return strings.TrimRight(sqlText, " \t\n\r") + fmt.Sprintf(" LIMIT %d", maxLimit)
}
