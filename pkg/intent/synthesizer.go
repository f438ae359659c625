package intent

import (
	"fmt"
)

// Plan is the synthesized, parameterized SQL for a classified intent.
type Plan struct {
	SQL    string
	Params []any
	Tables []string
}

// Synthesize produces the SQL template for an intent. Every user-supplied
// value is bound as a parameter; the one exception is the top-N count,
// which is inlined only after it has been validated as an integer in
// [1, 1000], because the engine does not support binding a LIMIT count.
// Ordering is always deterministic.
func Synthesize(in Intent) (Plan, error) {
	switch in.Kind {
	case KindRevenueByPeriod:
		return Plan{
			SQL: "SELECT CAST(order_date AS DATE) AS day, SUM(order_total) AS revenue " +
				"FROM Inventory " +
				"WHERE CAST(order_date AS DATE) BETWEEN ? AND ? " +
				"GROUP BY day ORDER BY day",
			Params: []any{in.Range.From.Format("2006-01-02"), in.Range.To.Format("2006-01-02")},
			Tables: []string{"Inventory"},
		}, nil

	case KindOrdersByCustomer:
		return Plan{
			SQL: "SELECT Inventory.IID, CAST(Inventory.order_date AS DATE) AS order_date, Inventory.order_total " +
				"FROM Inventory WHERE Inventory.CID = ? ORDER BY Inventory.order_date DESC",
			Params: []any{in.CustomerID},
			Tables: []string{"Inventory"},
		}, nil

	case KindTopProducts:
		k := clampTopN(in.K)
		return Plan{
			SQL: fmt.Sprintf(
				"SELECT Detail.product_id, SUM(Detail.qty) AS total_qty, SUM(Detail.qty * Detail.unit_price) AS total_revenue "+
					"FROM Detail GROUP BY Detail.product_id ORDER BY SUM(Detail.qty * Detail.unit_price) DESC LIMIT %d", k),
			Tables: []string{"Detail"},
		}, nil

	case KindTopCustomers:
		k := clampTopN(in.K)
		return Plan{
			SQL: fmt.Sprintf(
				"SELECT COALESCE(Customer.name, CAST(Inventory.CID AS VARCHAR)) AS customer, "+
					"SUM(Inventory.order_total) AS revenue "+
					"FROM Inventory LEFT JOIN Customer ON Customer.CID = Inventory.CID "+
					"GROUP BY COALESCE(Customer.name, CAST(Inventory.CID AS VARCHAR)) "+
					"ORDER BY revenue DESC LIMIT %d", k),
			Tables: []string{"Customer", "Inventory"},
		}, nil

	case KindOrderDetails:
		return Plan{
			SQL: "SELECT Detail.DID, Detail.product_id, Detail.qty, Detail.unit_price, (Detail.qty * Detail.unit_price) AS line_total " +
				"FROM Detail WHERE Detail.IID = ? ORDER BY Detail.DID",
			Params: []any{in.OrderID},
			Tables: []string{"Detail"},
		}, nil

	default:
		return Plan{}, fmt.Errorf("no SQL template for intent %q", in.Kind)
	}
}
