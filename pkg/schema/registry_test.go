package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalTableName(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		in    string
		want  string
		known bool
	}{
		{"Customer", "Customer", true},
		{"customer", "Customer", true},
		{"INVENTORY", "Inventory", true},
		{"detail", "Detail", true},
		{"pricelist", "Pricelist", true},
		{"Payroll", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.CanonicalTableName(tt.in)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedColumn(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.AllowedColumn("Customer", "CID"))
	assert.True(t, r.AllowedColumn("customer", "cid"))
	assert.True(t, r.AllowedColumn("Inventory", "order_total"))
	assert.True(t, r.AllowedColumn("Detail", "price_table_item_id"))
	assert.False(t, r.AllowedColumn("Customer", "order_total"))
	assert.False(t, r.AllowedColumn("Customer", "password"))
	assert.False(t, r.AllowedColumn("Payroll", "salary"))
}

func TestKnownColumn(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.KnownColumn("order_date"))
	assert.True(t, r.KnownColumn("ORDER_DATE"))
	assert.True(t, r.KnownColumn("qty"))
	assert.False(t, r.KnownColumn("salary"))
}

func TestSortedTableSet(t *testing.T) {
	r := NewRegistry()

	got := r.SortedTableSet([]string{"inventory", "CUSTOMER", "Inventory", "nonsense"})
	assert.Equal(t, []string{"Customer", "Inventory"}, got)

	assert.Empty(t, r.SortedTableSet(nil))
}

func TestTableNamesDeclarationOrder(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"Customer", "Inventory", "Detail", "Pricelist"}, r.TableNames())
}

func TestPromptContextListsTablesAndRelationships(t *testing.T) {
	r := NewRegistry()

	got := r.PromptContext()
	for _, table := range r.TableNames() {
		assert.Contains(t, got, table)
	}
	assert.Contains(t, got, "Inventory.CID -> Customer.CID")
	assert.Contains(t, got, "Detail.price_table_item_id -> Pricelist.price_table_item_id")
}

func TestCanonicalColumnName(t *testing.T) {
	tests := []struct {
		table string
		raw   string
		want  string
	}{
		{"Detail", "quantity", "qty"},
		{"Detail", "sku", "product_id"},
		{"Inventory", "order_id", "iid"},
		{"Customer", "customer_name", "name"},
		{"Customer", "unmapped_heading", "unmapped_heading"},
		{"Payroll", "anything", "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.table+"/"+tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, CanonicalColumnName(tt.table, tt.raw))
		})
	}
}
