package quality

import (
	"fmt"

	"github.com/askretail/askretail-engine/pkg/config"
)

// Validation statuses.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Badge severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
	SeverityNone   = "none"
)

// Validation records one pre-execution check performed on a generated or
// synthesized query.
type Validation struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Badge annotates a response with a quality caveat, or a single success
// badge when nothing was penalized.
type Badge struct {
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	Severity string  `json:"severity"`
	Penalty  float64 `json:"penalty,omitempty"`
}

// ConfidenceResult is the scored outcome attached to every answer.
type ConfidenceResult struct {
	Score  float64 `json:"score"`
	Badges []Badge `json:"badges"`
}

// Scorer applies the configured penalty model. All weights come from
// config so deployments can tune them without code changes.
type Scorer struct {
	cfg config.ConfidenceConfig
}

func NewScorer(cfg config.ConfidenceConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes confidence for a single answer. Each triggered condition
// penalizes the score independently and emits its own severity-tagged
// badge, in a fixed order: validation failures, empty result, orphan
// orders, orphan details, missing prices, negative totals, negative
// prices, null dates. A nil metrics pointer (collection degraded) applies
// no data-shape penalties.
func (s *Scorer) Score(validations []Validation, rowsFound int, m *Metrics) ConfidenceResult {
	score := s.cfg.Baseline
	var badges []Badge

	for _, v := range validations {
		if v.Status == StatusFail {
			score -= s.cfg.ValidationPenalty
			badges = append(badges, Badge{
				Kind:     "validation_failed",
				Label:    "Validation failed: " + v.Name,
				Severity: SeverityMedium,
				Penalty:  s.cfg.ValidationPenalty,
			})
		}
	}

	if rowsFound == 0 {
		score -= s.cfg.EmptyResultPenalty
		badges = append(badges, Badge{
			Kind:     "empty_result",
			Label:    "No rows matched the query",
			Severity: SeverityHigh,
			Penalty:  s.cfg.EmptyResultPenalty,
		})
	}

	if m != nil {
		if m.OrphanInventoryRate > s.cfg.OrphanThreshold {
			score -= s.cfg.OrphanPenalty
			badges = append(badges, Badge{
				Kind:     "orphan_orders",
				Label:    fmt.Sprintf("Orphan orders: %.0f%%", m.OrphanInventoryRate*100),
				Severity: SeverityLow,
				Penalty:  s.cfg.OrphanPenalty,
			})
		}
		if m.OrphanDetailRate > s.cfg.OrphanThreshold {
			score -= s.cfg.OrphanPenalty
			badges = append(badges, Badge{
				Kind:     "orphan_details",
				Label:    fmt.Sprintf("Orphan details: %.0f%%", m.OrphanDetailRate*100),
				Severity: SeverityLow,
				Penalty:  s.cfg.OrphanPenalty,
			})
		}
		if m.OrphanPriceRate > s.cfg.OrphanThreshold {
			score -= s.cfg.MissingPricePenalty
			badges = append(badges, Badge{
				Kind:     "missing_prices",
				Label:    fmt.Sprintf("Missing prices: %.0f%%", m.OrphanPriceRate*100),
				Severity: SeverityMedium,
				Penalty:  s.cfg.MissingPricePenalty,
			})
		}
		if m.NegativeTotals > 0 {
			score -= s.cfg.NegativePenalty
			badges = append(badges, Badge{
				Kind:     "negative_totals",
				Label:    fmt.Sprintf("Negative totals: %d", m.NegativeTotals),
				Severity: SeverityMedium,
				Penalty:  s.cfg.NegativePenalty,
			})
		}
		if m.NegativePrices > 0 {
			score -= s.cfg.NegativePenalty
			badges = append(badges, Badge{
				Kind:     "negative_prices",
				Label:    fmt.Sprintf("Negative prices: %d", m.NegativePrices),
				Severity: SeverityMedium,
				Penalty:  s.cfg.NegativePenalty,
			})
		}
		if m.NullDateRate > s.cfg.NullDateThreshold {
			score -= s.cfg.NullDatePenalty
			badges = append(badges, Badge{
				Kind:     "null_dates",
				Label:    fmt.Sprintf("Missing dates: %.0f%%", m.NullDateRate*100),
				Severity: SeverityLow,
				Penalty:  s.cfg.NullDatePenalty,
			})
		}
	}

	if score < s.cfg.Floor {
		score = s.cfg.Floor
	}
	if score > s.cfg.Ceiling {
		score = s.cfg.Ceiling
	}

	if len(badges) == 0 {
		badges = []Badge{{Kind: "high_quality", Label: "High data quality", Severity: SeverityNone}}
	}
	return ConfidenceResult{Score: score, Badges: badges}
}
