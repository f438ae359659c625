// Package dates resolves natural-language temporal phrases into concrete
// date ranges. All relative phrases are anchored to the data horizon (the
// maximum order date present in the dataset) rather than the wall clock, so
// a static historical dataset still produces non-empty "recent" ranges.
package dates

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
)

// Range is a resolved [From, To] date range. Either both bounds are set or
// the range is empty; a partial range is never produced.
type Range struct {
	From time.Time
	To   time.Time
}

// Empty reports whether no range was resolved.
func (r Range) Empty() bool {
	return r.From.IsZero() || r.To.IsZero()
}

// Filter carries an explicit date range from the request, as ISO-8601
// strings. Both fields must be set for the filter to apply.
type Filter struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HorizonProvider supplies the data horizon. Implemented by the engine.
type HorizonProvider interface {
	Horizon(ctx context.Context) (time.Time, error)
}

// Resolver turns message text plus optional explicit filters into a Range.
type Resolver struct {
	horizon  HorizonProvider
	fallback time.Time
	logger   *zap.Logger
}

// NewResolver creates a resolver anchored to the given horizon provider.
// fallback is used when the horizon cannot be determined.
func NewResolver(horizon HorizonProvider, fallback time.Time, logger *zap.Logger) *Resolver {
	return &Resolver{
		horizon:  horizon,
		fallback: fallback,
		logger:   logger.Named("dates"),
	}
}

var (
	lastDaysPattern   = regexp.MustCompile(`last\s+(\d+)\s+days?`)
	lastWeeksPattern  = regexp.MustCompile(`last\s+(\d+)\s+weeks?`)
	lastMonthsPattern = regexp.MustCompile(`last\s+(\d+)\s+months?`)
	quarterPattern    = regexp.MustCompile(`\bq([1-4])\s*(\d{4})\b`)
	monthYearPattern  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
	monthPattern      = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Resolve maps text and an optional explicit filter to a Range. An explicit
// filter with both bounds takes priority; malformed dates fail with
// apperrors.ErrInvalidDateFormat. Otherwise the text is pattern-matched in
// fixed priority order; if nothing matches, an empty Range is returned.
func (r *Resolver) Resolve(ctx context.Context, text string, filter *Filter) (Range, error) {
	if filter != nil && filter.From != "" && filter.To != "" {
		from, err := parseISODate(filter.From)
		if err != nil {
			return Range{}, err
		}
		to, err := parseISODate(filter.To)
		if err != nil {
			return Range{}, err
		}
		return Range{From: from, To: to}, nil
	}

	return r.resolveText(ctx, strings.ToLower(text)), nil
}

// TrailingYear returns the default reporting window: from the first of the
// horizon month minus 365 days through the horizon itself.
func (r *Resolver) TrailingYear(ctx context.Context) Range {
	anchor := r.anchor(ctx)
	return Range{From: startOfMonth(anchor).AddDate(0, 0, -365), To: anchor}
}

func parseISODate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not an ISO date (YYYY-MM-DD)", apperrors.ErrInvalidDateFormat, s)
	}
	return t, nil
}

// anchor returns the data horizon, falling back to the configured default
// when the lookup fails or the table is empty.
func (r *Resolver) anchor(ctx context.Context) time.Time {
	horizon, err := r.horizon.Horizon(ctx)
	if err != nil || horizon.IsZero() {
		r.logger.Warn("data horizon unavailable, using fallback",
			zap.Time("fallback", r.fallback),
			zap.Error(err))
		return r.fallback
	}
	return horizon
}

func (r *Resolver) resolveText(ctx context.Context, text string) Range {
	// Cheap pre-check before paying for the horizon lookup.
	if !mentionsPeriod(text) {
		return Range{}
	}

	anchor := r.anchor(ctx)

	// last N days/weeks/months. Weeks are 7-day windows and months 30-day
	// windows; approximate, not calendar-aware.
	if m := lastDaysPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Range{From: anchor.AddDate(0, 0, -n), To: anchor}
	}
	if m := lastWeeksPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Range{From: anchor.AddDate(0, 0, -7*n), To: anchor}
	}
	if m := lastMonthsPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Range{From: anchor.AddDate(0, 0, -30*n), To: anchor}
	}

	switch {
	case strings.Contains(text, "last 30 days"):
		return Range{From: anchor.AddDate(0, 0, -30), To: anchor}
	case strings.Contains(text, "this month"):
		return Range{From: startOfMonth(anchor), To: anchor}
	case strings.Contains(text, "last month"):
		lastMonthEnd := startOfMonth(anchor).AddDate(0, 0, -1)
		return Range{From: startOfMonth(lastMonthEnd), To: lastMonthEnd}
	case strings.Contains(text, "this year"):
		return Range{From: time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), To: anchor}
	case strings.Contains(text, "last year"):
		y := anchor.Year() - 1
		return Range{
			From: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
		}
	case strings.Contains(text, "this week"):
		return Range{From: startOfISOWeek(anchor), To: anchor}
	case strings.Contains(text, "last week"):
		start := startOfISOWeek(anchor).AddDate(0, 0, -7)
		return Range{From: start, To: start.AddDate(0, 0, 6)}
	case strings.Contains(text, "this quarter"):
		start, end := quarterBounds(anchor.Year(), quarterOf(anchor))
		return Range{From: start, To: end}
	case strings.Contains(text, "last quarter"):
		y, q := anchor.Year(), quarterOf(anchor)
		if q == 1 {
			y, q = y-1, 4
		} else {
			q--
		}
		start, end := quarterBounds(y, q)
		return Range{From: start, To: end}
	}

	// Qn YYYY
	if m := quarterPattern.FindStringSubmatch(text); m != nil {
		q, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		start, end := quarterBounds(y, q)
		return Range{From: start, To: end}
	}

	// Month YYYY
	if m := monthYearPattern.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[2])
		start := time.Date(y, monthNames[m[1]], 1, 0, 0, 0, 0, time.UTC)
		return Range{From: start, To: endOfMonth(start)}
	}

	// Bare month name: year defaults to the horizon's year.
	if m := monthPattern.FindStringSubmatch(text); m != nil {
		start := time.Date(anchor.Year(), monthNames[m[1]], 1, 0, 0, 0, 0, time.UTC)
		return Range{From: start, To: endOfMonth(start)}
	}

	return Range{}
}

// mentionsPeriod is a coarse filter: does the text contain anything the
// resolver could possibly match?
func mentionsPeriod(text string) bool {
	for _, kw := range []string{"last", "this", "day", "week", "month", "year", "quarter"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	if quarterPattern.MatchString(text) || monthPattern.MatchString(text) {
		return true
	}
	return false
}

func startOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// endOfMonth returns the last day of the month containing d, rolling the
// year over for December.
func endOfMonth(d time.Time) time.Time {
	return startOfMonth(d).AddDate(0, 1, 0).AddDate(0, 0, -1)
}

// startOfISOWeek returns the Monday of the ISO week containing d.
func startOfISOWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}

func quarterOf(d time.Time) int {
	return (int(d.Month())-1)/3 + 1
}

// quarterBounds returns the first and last day of quarter q of year y.
// Q4 end rolls over correctly into the next year's January minus a day.
func quarterBounds(y, q int) (time.Time, time.Time) {
	startMonth := time.Month((q-1)*3 + 1)
	start := time.Date(y, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := endOfMonth(start.AddDate(0, 2, 0))
	return start, end
}
