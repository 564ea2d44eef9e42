package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// missingTokens are cell spellings treated as a missing value in Open Food
// Facts exports.
var missingTokens = map[string]bool{
	"":        true,
	"na":      true,
	"n/a":     true,
	"nan":     true,
	"null":    true,
	"unknown": true,
}

// IsMissingToken reports whether a raw CSV cell spells a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseValue converts a raw CSV cell into int, float64, string or nil.
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if IsMissingToken(s) {
		return nil
	}
	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Numeric safely converts supported types to float64.
func Numeric(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case float32:
		return float64(val)
	default:
		rv := reflect.ValueOf(v)
		if v != nil && rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return rv.Convert(reflect.TypeOf(float64(0))).Float()
		}
		return 0
	}
}

// FormatCell renders a cell for CSV output. Missing cells become "",
// floats keep a stable short representation.
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return ""
	}
}
