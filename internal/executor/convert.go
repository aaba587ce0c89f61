package executor

import (
	"math"
	"strconv"
	"strings"
)

// AsInt64 converts a scalar result to int64. NULL, out-of-range floats and
// anything that does not parse as a number become 0.
func AsInt64(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if math.IsNaN(x) || x >= math.MaxInt64 || x < math.MinInt64 {
			return 0
		}
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return parseInt64(x)
	case []byte:
		return parseInt64(string(x))
	default:
		return 0
	}
}

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return AsInt64(f)
	}
	return 0
}
