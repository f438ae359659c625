package schema

import "strings"

// aliasMap maps canonical column names to the raw-file spellings seen in
// customer exports. Extend as new source files appear.
var aliasMap = map[string]map[string][]string{
	"customer": {
		"cid":   {"CID", "customer_id"},
		"name":  {"name", "customer_name"},
		"email": {"email"},
	},
	"inventory": {
		"iid":         {"IID", "order_id"},
		"cid":         {"CID", "customer_id"},
		"order_date":  {"order_date", "date"},
		"order_total": {"order_total", "total"},
	},
	"detail": {
		"did":                 {"DID"},
		"iid":                 {"IID", "order_id"},
		"product_id":          {"product_id", "sku"},
		"qty":                 {"qty", "quantity"},
		"unit_price":          {"unit_price", "price"},
		"price_table_item_id": {"price_table_item_id"},
	},
	"pricelist": {
		"price_table_item_id": {"price_table_item_id"},
		"product_id":          {"product_id"},
		"unit_price":          {"unit_price"},
	},
}

// CanonicalColumnName resolves a raw source-file column heading to the
// canonical column name for the given table. Returns the input unchanged
// when no alias matches.
func CanonicalColumnName(table, raw string) string {
	aliases, ok := aliasMap[strings.ToLower(table)]
	if !ok {
		return raw
	}
	for canonical, spellings := range aliases {
		for _, s := range spellings {
			if strings.EqualFold(s, raw) {
				return canonical
			}
		}
	}
	return raw
}
