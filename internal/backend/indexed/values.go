package indexed

import (
	"math"
	"regexp"
	"strconv"
)

var (
	intLiteral   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	floatLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)
)

// parseValue types a hash string. Plain decimal literals become int64 or float64;
// everything else stays a string: "nan", "inf", zero-padded ids such as "007", and
// integers beyond int64.
func parseValue(s string) any {
	if intLiteral.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return s
	}
	if floatLiteral.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	}
	return s
}

// toRecord types every public field of a hash.
func toRecord(fields map[string]string) map[string]any {
	rec := make(map[string]any, len(fields))
	for k, v := range fields {
		if isInternal(k) {
			continue
		}
		rec[k] = parseValue(v)
	}
	return rec
}

func isInternal(key string) bool {
	for _, k := range internalKeys {
		if k == key {
			return true
		}
	}
	return false
}

// asFloat accepts finite numbers only.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int64:
		return float64(x), true
	}
	return 0, false
}
