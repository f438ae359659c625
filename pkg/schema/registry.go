// Package schema holds the static description of the retail dataset: the
// four canonical tables, their columns, and the relationships between them.
// The registry is built once at startup and is read-only afterwards; every
// other component (classifier, synthesizer, safety gateway, LLM prompts)
// resolves names against it.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Column describes a canonical column and its human-readable meaning.
type Column struct {
	Name        string
	Description string
}

// Table describes one canonical table.
type Table struct {
	Name        string
	Description string
	Columns     []Column
}

// Relationship is a foreign-key style link between two tables.
type Relationship struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// Registry is the process-wide schema registry. Safe for concurrent reads.
type Registry struct {
	tables        []Table
	byLowerName   map[string]Table
	columnsByName map[string]map[string]bool // lower table -> lower column -> true
	knownColumns  map[string]bool            // lower column names across all tables
	relationships []Relationship
}

// NewRegistry builds the registry for the retail dataset.
func NewRegistry() *Registry {
	tables := []Table{
		{
			Name:        "Customer",
			Description: "customer master data. CID links to Inventory.CID",
			Columns: []Column{
				{Name: "CID", Description: "integer primary key"},
				{Name: "name", Description: "full name string"},
				{Name: "email", Description: "customer email address"},
				{Name: "phone", Description: "phone number"},
				{Name: "address", Description: "street address"},
				{Name: "city", Description: "city"},
				{Name: "state", Description: "state"},
				{Name: "zip", Description: "postal code"},
			},
		},
		{
			Name:        "Inventory",
			Description: "high level orders. Links to Customer via CID",
			Columns: []Column{
				{Name: "IID", Description: "integer primary key (order id)"},
				{Name: "CID", Description: "customer id"},
				{Name: "order_date", Description: "date the order was placed"},
				{Name: "order_total", Description: "numeric total"},
				{Name: "CATEGORY", Description: "category label"},
				{Name: "PIECES", Description: "number of pieces"},
				{Name: "READYDATE", Description: "date order ready"},
				{Name: "OUTDATE", Description: "pickup date"},
				{Name: "PIF", Description: "boolean paid in full flag"},
				{Name: "payment_type", Description: "payment method text"},
			},
		},
		{
			Name:        "Detail",
			Description: "line items for orders. Links to Inventory via IID and Pricelist via price_table_item_id",
			Columns: []Column{
				{Name: "DID", Description: "integer primary key"},
				{Name: "IID", Description: "order id"},
				{Name: "price_table_item_id", Description: "foreign key to Pricelist"},
				{Name: "product_id", Description: "item label"},
				{Name: "qty", Description: "quantity ordered"},
				{Name: "unit_price", Description: "unit price"},
				{Name: "line_total", Description: "line total (qty * unit_price)"},
			},
		},
		{
			Name:        "Pricelist",
			Description: "catalog information for items",
			Columns: []Column{
				{Name: "price_table_item_id", Description: "primary key"},
				{Name: "product_id", Description: "item display name"},
				{Name: "unit_price", Description: "base or current price"},
			},
		},
	}

	r := &Registry{
		tables:        tables,
		byLowerName:   make(map[string]Table, len(tables)),
		columnsByName: make(map[string]map[string]bool, len(tables)),
		knownColumns:  make(map[string]bool),
		relationships: []Relationship{
			{FromTable: "Inventory", FromColumn: "CID", ToTable: "Customer", ToColumn: "CID"},
			{FromTable: "Detail", FromColumn: "IID", ToTable: "Inventory", ToColumn: "IID"},
			{FromTable: "Detail", FromColumn: "price_table_item_id", ToTable: "Pricelist", ToColumn: "price_table_item_id"},
		},
	}

	for _, t := range tables {
		lower := strings.ToLower(t.Name)
		r.byLowerName[lower] = t
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			cols[strings.ToLower(c.Name)] = true
			r.knownColumns[strings.ToLower(c.Name)] = true
		}
		r.columnsByName[lower] = cols
	}

	return r
}

// Tables returns the canonical tables in declaration order.
func (r *Registry) Tables() []Table {
	return r.tables
}

// TableNames returns the canonical table names in declaration order.
func (r *Registry) TableNames() []string {
	names := make([]string, len(r.tables))
	for i, t := range r.tables {
		names[i] = t.Name
	}
	return names
}

// Lookup resolves a table by name, case-insensitively.
func (r *Registry) Lookup(name string) (Table, bool) {
	t, ok := r.byLowerName[strings.ToLower(name)]
	return t, ok
}

// CanonicalTableName maps any casing of a known table name to its canonical
// spelling.
func (r *Registry) CanonicalTableName(name string) (string, bool) {
	t, ok := r.byLowerName[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return t.Name, true
}

// AllowedColumn reports whether table.column is in the registry,
// case-insensitively.
func (r *Registry) AllowedColumn(table, column string) bool {
	cols, ok := r.columnsByName[strings.ToLower(table)]
	if !ok {
		return false
	}
	return cols[strings.ToLower(column)]
}

// KnownColumn reports whether the column name exists on any table. Used by
// the safety gateway to exempt unqualified column references from the
// table.column whitelist check.
func (r *Registry) KnownColumn(column string) bool {
	return r.knownColumns[strings.ToLower(column)]
}

// Relationships returns the inter-table links.
func (r *Registry) Relationships() []Relationship {
	return r.relationships
}

// PromptContext renders the registry as markdown for LLM prompts: one block
// per table plus relationship notes.
func (r *Registry) PromptContext() string {
	var sb strings.Builder
	for _, t := range r.tables {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
		for _, c := range t.Columns {
			fmt.Fprintf(&sb, "    - %s: %s\n", c.Name, c.Description)
		}
	}
	sb.WriteString("Relationships: ")
	parts := make([]string, 0, len(r.relationships))
	for _, rel := range r.relationships {
		parts = append(parts, fmt.Sprintf("%s.%s -> %s.%s", rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn))
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(". Use LEFT JOINs when unsure to avoid unintentionally dropping rows.")
	return sb.String()
}

// SortedTableSet lower-cases, de-duplicates, canonicalizes and sorts a list
// of table names. Unknown names are dropped.
func (r *Registry) SortedTableSet(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		canonical, ok := r.CanonicalTableName(n)
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}
