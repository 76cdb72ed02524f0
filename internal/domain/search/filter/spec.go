package filter

// Kind discriminates the constraint variants of a filter spec.
type Kind int

const (
	// KindString accepts trimmed strings, optionally from a fixed value set.
	KindString Kind = iota
	// KindNumber accepts numbers within optional [min, max] bounds.
	KindNumber
	// KindBoolean accepts booleans and the strings "true"/"1" (case-insensitive).
	KindBoolean
	// KindDate accepts parseable dates, normalized to RFC 3339 UTC.
	KindDate
	// KindArray accepts sequences or comma-separated strings.
	KindArray
)

// Spec constrains the values accepted for one filter name.
type Spec struct {
	kind   Kind
	values []string
	min    *float64
	max    *float64
}

// Kind returns the constraint variant.
func (s Spec) Kind() Kind { return s.kind }

// String creates a string spec, optionally restricted to an allowed value set.
func String(allowed ...string) Spec {
	return Spec{kind: KindString, values: allowed}
}

// Number creates a number spec with optional bounds (nil = unbounded).
func Number(min, max *float64) Spec {
	return Spec{kind: KindNumber, min: min, max: max}
}

// Boolean creates a boolean spec.
func Boolean() Spec { return Spec{kind: KindBoolean} }

// Date creates a date spec.
func Date() Spec { return Spec{kind: KindDate} }

// Array creates an array spec.
func Array() Spec { return Spec{kind: KindArray} }

// Schema is the process-wide table of accepted filters. It is constructed
// once at startup and never mutated afterwards.
type Schema map[string]Spec

// DefaultSchema returns the filter table of the listings index.
func DefaultSchema() Schema {
	return Schema{
		// String filters
		"status":    String("active", "inactive", "pending", "sold"),
		"condition": String("new", "like_new", "good", "fair", "poor"),
		"user_id":   String(),

		// Numeric filters
		"views":     Number(bound(0), nil),
		"rating":    Number(bound(0), bound(5)),
		"bedrooms":  Number(bound(0), bound(20)),
		"bathrooms": Number(bound(0), bound(20)),
		"area":      Number(bound(0), nil),

		// Boolean filters
		"featured":   Boolean(),
		"negotiable": Boolean(),
		"urgent":     Boolean(),

		// Date filters
		"created_after":  Date(),
		"created_before": Date(),
		"updated_after":  Date(),
		"updated_before": Date(),

		// Array filters
		"amenities":       Array(),
		"payment_methods": Array(),
	}
}

func bound(v float64) *float64 { return &v }
