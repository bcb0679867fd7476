package query

import (
	"strconv"
	"strings"
	"time"
)

// StringPtr is a helper function that returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr is a helper function that returns a pointer to an int64.
func Int64Ptr(i int64) *int64 {
	return &i
}

// ToFloat64 is a utility function that converts a value of various numeric types
// to a float64. It returns the converted float64 and a boolean indicating whether
// the conversion was successful.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToTime converts a time.Time or an RFC 3339 string to a time.Time.
func ToTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.DateOnly, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareValues orders a against b, returning -1, 0 or 1. ok is false when
// the two values cannot be compared. Numbers compare numerically, times
// chronologically, booleans false before true, and strings lexically.
func CompareValues(a, b any) (cmp int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if _, isStr := b.(string); !isStr {
		if fa, okA := ToFloat64(a); okA {
			if fb, okB := ToFloat64(b); okB {
				return compareOrdered(fa, fb), true
			}
		}
	}
	if tb, okB := b.(time.Time); okB {
		if ta, okA := ToTime(a); okA {
			return ta.Compare(tb), true
		}
	}
	if ta, okA := a.(time.Time); okA {
		if tb, okB := ToTime(b); okB {
			return ta.Compare(tb), true
		}
	}
	if ba, okA := a.(bool); okA {
		if bb, okB := b.(bool); okB {
			switch {
			case ba == bb:
				return 0, true
			case !ba:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	if sa, okA := a.(string); okA {
		if sb, okB := b.(string); okB {
			return strings.Compare(sa, sb), true
		}
	}
	return 0, false
}

func compareOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
