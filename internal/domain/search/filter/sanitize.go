package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sanitized holds filter values that passed their spec. Coerced types per
// kind: string, float64, bool, RFC 3339 string (date), []string (array).
type Sanitized map[string]any

// Sanitize narrows raw filter input to the schema. Unknown keys and values
// failing their constraint are dropped silently; Sanitize never fails.
func (s Schema) Sanitize(raw map[string]any) Sanitized {
	out := make(Sanitized, len(raw))

	for key, value := range raw {
		spec, ok := s[key]
		if !ok || isEmpty(value) {
			continue
		}
		if v, ok := coerce(value, spec); ok {
			out[key] = v
		}
	}

	return out
}

// coerce dispatches on the spec's constraint kind.
func coerce(value any, spec Spec) (any, bool) {
	switch spec.kind {
	case KindString:
		return coerceString(value, spec)
	case KindNumber:
		return coerceNumber(value, spec)
	case KindBoolean:
		return coerceBoolean(value), true
	case KindDate:
		return coerceDate(value)
	case KindArray:
		return coerceArray(value)
	default:
		return strings.TrimSpace(stringify(value)), true
	}
}

func coerceString(value any, spec Spec) (any, bool) {
	s := strings.TrimSpace(stringify(value))
	if len(spec.values) > 0 && !contains(spec.values, s) {
		return nil, false
	}
	return s, true
}

func coerceNumber(value any, spec Spec) (any, bool) {
	n, err := parseNumber(value)
	if err != nil {
		return nil, false
	}
	if spec.min != nil && n < *spec.min {
		return nil, false
	}
	if spec.max != nil && n > *spec.max {
		return nil, false
	}
	return n, true
}

func coerceBoolean(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	s := strings.ToLower(stringify(value))
	return s == "true" || s == "1"
}

func coerceDate(value any) (any, bool) {
	t, err := parseDate(value)
	if err != nil {
		return nil, false
	}
	return t.UTC().Format(time.RFC3339), true
}

func coerceArray(value any) (any, bool) {
	switch vv := value.(type) {
	case []string:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if item != "" {
				out = append(out, item)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if item == nil {
				continue
			}
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	default:
		var out []string
		for _, part := range strings.Split(stringify(value), ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
}

// ValidateCombinations checks cross-field invariants that per-field specs
// cannot express. It operates on raw input and returns human-readable
// messages; an empty result means no violations.
func ValidateCombinations(raw map[string]any) []string {
	var errs []string

	min, minErr := numberAt(raw, "priceMin")
	max, maxErr := numberAt(raw, "priceMax")
	if minErr == nil && maxErr == nil && min > max {
		errs = append(errs, "Minimum price cannot be greater than maximum price")
	}

	if after, err := dateAt(raw, "created_after"); err == nil {
		if before, err := dateAt(raw, "created_before"); err == nil && after.After(before) {
			errs = append(errs, "Start date cannot be after end date")
		}
	}

	errs = appendBoundsError(errs, raw, "bedrooms", 0, 20, "Bedrooms must be between 0 and 20")
	errs = appendBoundsError(errs, raw, "bathrooms", 0, 20, "Bathrooms must be between 0 and 20")
	errs = appendBoundsError(errs, raw, "rating", 0, 5, "Rating must be between 0 and 5")

	return errs
}

func appendBoundsError(errs []string, raw map[string]any, key string, min, max float64, msg string) []string {
	n, err := numberAt(raw, key)
	if err != nil {
		return errs
	}
	if n < min || n > max {
		errs = append(errs, msg)
	}
	return errs
}

func numberAt(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || isEmpty(v) {
		return 0, fmt.Errorf("absent")
	}
	return parseNumber(v)
}

func dateAt(raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || isEmpty(v) {
		return time.Time{}, fmt.Errorf("absent")
	}
	return parseDate(v)
}

func parseNumber(value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", value)
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(value any) (time.Time, error) {
	switch t := value.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", t)
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unparseable date: %v", value)
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
