package services

import (
	"fmt"
	"time"
)

// asFloat coerces a scanned DuckDB value to float64. NULL and unsupported
// types coerce to zero.
func asFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case uint64:
		return float64(x)
	default:
		return 0
	}
}

// asInt coerces a scanned value to int64.
func asInt(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case int64:
		return x
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

// asString renders a scanned value for display. Dates render as ISO days.
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// formatCurrency renders a dollar amount with two decimals and thousands
// separators.
func formatCurrency(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart, fracPart := s[:len(s)-3], s[len(s)-3:]
	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}
	out := "$" + string(grouped) + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
