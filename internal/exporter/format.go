package exporter

import (
	"fmt"
	"strconv"
	"time"

	"streamcast/pkg/contracts/domain"
)

// formatFloat formats a float64 with the fewest digits that round-trip
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate formats a calendar date as YYYY-MM-DD
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// truncate drops the fractional part, matching an integer cast
func truncate(f float64) int64 {
	return int64(f)
}

// formatCell renders one table cell as CSV text
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return formatFloat(c)
	case int:
		return strconv.Itoa(c)
	case int64:
		return formatInt(c)
	case bool:
		return strconv.FormatBool(c)
	case time.Time:
		return formatDate(c)
	default:
		return fmt.Sprint(c)
	}
}
