package merging

import (
	"strconv"
	"strings"
)

// Converter turns a raw decoded JSON value into a typed field value. ok is
// false when the value has no meaningful representation of that type.
type Converter[T any] func(v any) (value T, ok bool)

// Resolve returns the first candidate, in priority order, that converts to a
// non-empty value. Candidates are typically the same field read from several
// sources, highest priority first.
func Resolve[T any](convert Converter[T], candidates ...any) (T, bool) {
	for _, c := range candidates {
		if IsEmpty(c) {
			continue
		}
		if v, ok := convert(c); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// FirstNonEmpty returns the first candidate that is not empty, without any
// type conversion.
func FirstNonEmpty(candidates ...any) (any, bool) {
	for _, c := range candidates {
		if !IsEmpty(c) {
			return c, true
		}
	}
	return nil, false
}

// IsEmpty reports whether a decoded JSON value carries no information: nil,
// an empty string, or an empty object or array. false, 0 and whitespace are values.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// AsString accepts strings unchanged and renders numbers and booleans as text.
func AsString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// AsFloat accepts JSON numbers and numeric strings.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool accepts booleans only.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsScalar passes a number, string or boolean through with its JSON type.
func AsScalar(v any) (any, bool) {
	switch v.(type) {
	case float64, string, bool:
		return v, !IsEmpty(v)
	default:
		return nil, false
	}
}

// AsStringSlice keeps every string element of an array as published, empty
// strings included. Numbers are rendered as text and nulls are dropped.
func AsStringSlice(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch val := item.(type) {
		case string:
			out = append(out, val)
		case float64, bool:
			s, _ := AsString(val)
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

// AsObject accepts non-empty JSON objects.
func AsObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && len(m) > 0
}
