// Package quality derives dataset-level quality metrics and turns
// validation outcomes plus those metrics into a confidence score with
// human-readable badges.
package quality

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/schema"
)

// Aggregator runs a single aggregate query returning one integer. The
// engine implements it; tests inject fakes.
type Aggregator interface {
	ScalarInt(ctx context.Context, sqlText string, timeout time.Duration) (int64, error)
}

// Metrics holds derived dataset quality indicators. Recomputed on demand,
// never persisted.
type Metrics struct {
	OrphanInventoryRate float64 `json:"orphan_inventory_rate"`
	OrphanDetailRate    float64 `json:"orphan_detail_rate"`
	OrphanPriceRate     float64 `json:"orphan_price_rate"`
	NegativeTotals      int64   `json:"negative_totals"`
	NegativePrices      int64   `json:"negative_prices"`
	NullDateRate        float64 `json:"null_date_rate"`
}

// Collector computes Metrics via independent aggregate queries against the
// data engine. Orphan checks are derived from the registry's relationships.
type Collector struct {
	agg      Aggregator
	registry *schema.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewCollector creates a collector. timeout bounds each individual
// aggregate query.
func NewCollector(agg Aggregator, registry *schema.Registry, timeout time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		agg:      agg,
		registry: registry,
		timeout:  timeout,
		logger:   logger.Named("quality"),
	}
}

// Collect computes the full metric set. A failing aggregate degrades to nil
// metrics rather than failing the caller's request; scoring treats absent
// metrics as no penalty.
func (c *Collector) Collect(ctx context.Context) *Metrics {
	count := func(metric, q string) (int64, bool) {
		n, err := c.agg.ScalarInt(ctx, q, c.timeout)
		if err != nil {
			c.logger.Warn("quality aggregate failed", zap.String("metric", metric), zap.Error(err))
			return 0, false
		}
		return n, true
	}

	m := &Metrics{}
	totals := make(map[string]int64)

	for _, rel := range c.registry.Relationships() {
		orphans, ok := count("orphans_"+rel.FromTable,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s NOT IN (SELECT %s FROM %s)",
				rel.FromTable, rel.FromColumn, rel.ToColumn, rel.ToTable))
		if !ok {
			return nil
		}
		total, seen := totals[rel.FromTable]
		if !seen {
			total, ok = count("total_"+rel.FromTable, fmt.Sprintf("SELECT COUNT(*) FROM %s", rel.FromTable))
			if !ok {
				return nil
			}
			totals[rel.FromTable] = total
		}
		rate := float64(orphans) / float64(max64(total, 1))

		switch {
		case rel.FromTable == "Inventory" && rel.ToTable == "Customer":
			m.OrphanInventoryRate = rate
		case rel.FromTable == "Detail" && rel.ToTable == "Inventory":
			m.OrphanDetailRate = rate
		case rel.FromTable == "Detail" && rel.ToTable == "Pricelist":
			m.OrphanPriceRate = rate
		}
	}

	negTotals, ok := count("negative_totals", "SELECT COUNT(*) FROM Inventory WHERE order_total < 0")
	if !ok {
		return nil
	}
	negPrices, ok := count("negative_prices", "SELECT COUNT(*) FROM Detail WHERE unit_price < 0")
	if !ok {
		return nil
	}
	nullDates, ok := count("null_dates", "SELECT COUNT(*) FROM Inventory WHERE order_date IS NULL")
	if !ok {
		return nil
	}

	m.NegativeTotals = negTotals
	m.NegativePrices = negPrices
	m.NullDateRate = float64(nullDates) / float64(max64(totals["Inventory"], 1))
	return m
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
