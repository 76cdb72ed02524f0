package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type clauseKind int

const (
	clauseTerm clauseKind = iota
	clauseTerms
	clauseRange
	clauseGeo
)

// GeoRadius is a distance constraint around a coordinate.
type GeoRadius struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Clause is a single index filter: an exact term match, a term-set
// membership, an inclusive numeric range, or a geo radius.
type Clause struct {
	kind  clauseKind
	field string
	term  string
	terms []string
	gte   *float64
	lte   *float64
	geo   *GeoRadius
}

// NewTerm creates an exact match clause.
func NewTerm(field, value string) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Clause{}, fmt.Errorf("term value is required for field %q", field)
	}
	return Clause{kind: clauseTerm, field: field, term: value}, nil
}

// NewTerms creates a membership clause.
func NewTerms(field string, values []string) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if len(values) == 0 {
		return Clause{}, fmt.Errorf("at least one value is required for field %q", field)
	}
	return Clause{kind: clauseTerms, field: field, terms: values}, nil
}

// NewRange creates an inclusive numeric range clause. At least one bound is required.
func NewRange(field string, gte, lte *float64) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if gte == nil && lte == nil {
		return Clause{}, fmt.Errorf("at least one range bound is required for field %q", field)
	}
	return Clause{kind: clauseRange, field: field, gte: gte, lte: lte}, nil
}

// NewNumericEq creates a numeric equality clause (a degenerate range).
func NewNumericEq(field string, v float64) (Clause, error) {
	return NewRange(field, &v, &v)
}

// NewGeoRadius creates a geo distance clause.
func NewGeoRadius(field string, lat, lon, radiusKm float64) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if radiusKm <= 0 {
		return Clause{}, fmt.Errorf("radius must be positive for field %q", field)
	}
	return Clause{kind: clauseGeo, field: field, geo: &GeoRadius{Lat: lat, Lon: lon, RadiusKm: radiusKm}}, nil
}

// Field returns the filtered field name.
func (c Clause) Field() string { return c.field }

// IsTerm reports whether this is an exact match clause.
func (c Clause) IsTerm() bool { return c.kind == clauseTerm }

// Term returns the exact match value.
func (c Clause) Term() string { return c.term }

// IsTerms reports whether this is a membership clause.
func (c Clause) IsTerms() bool { return c.kind == clauseTerms }

// Terms returns the membership values.
func (c Clause) Terms() []string { return c.terms }

// IsRange reports whether this is a numeric range clause.
func (c Clause) IsRange() bool { return c.kind == clauseRange }

// GTE returns the inclusive lower bound.
func (c Clause) GTE() *float64 { return c.gte }

// LTE returns the inclusive upper bound.
func (c Clause) LTE() *float64 { return c.lte }

// IsGeo reports whether this is a geo radius clause.
func (c Clause) IsGeo() bool { return c.kind == clauseGeo }

// Geo returns the geo radius constraint.
func (c Clause) Geo() *GeoRadius { return c.geo }

// BuildClauses translates sanitized filters into index filter clauses.
// Strings and booleans become term matches, numbers equality ranges,
// non-empty arrays membership clauses, and date keys with an _after/_before
// suffix inclusive range bounds on the base field. Keys are processed in
// sorted order so the produced clause sequence is deterministic.
func (s Schema) BuildClauses(sanitized Sanitized) []Clause {
	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]Clause, 0, len(keys))
	for _, key := range keys {
		spec, ok := s[key]
		if !ok {
			continue
		}
		if c, ok := buildClause(key, sanitized[key], spec); ok {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

func buildClause(key string, value any, spec Spec) (Clause, bool) {
	switch spec.kind {
	case KindString:
		s, _ := value.(string)
		c, err := NewTerm(key, s)
		return c, err == nil

	case KindBoolean:
		b, _ := value.(bool)
		c, err := NewTerm(key, strconv.FormatBool(b))
		return c, err == nil

	case KindNumber:
		n, ok := value.(float64)
		if !ok {
			return Clause{}, false
		}
		c, err := NewNumericEq(key, n)
		return c, err == nil

	case KindArray:
		vals, _ := value.([]string)
		if len(vals) == 0 {
			return Clause{}, false
		}
		c, err := NewTerms(key, vals)
		return c, err == nil

	case KindDate:
		return buildDateClause(key, value)

	default:
		return Clause{}, false
	}
}

// buildDateClause maps created_after/created_before style keys onto
// inclusive range bounds of the matching timestamp field (created_at,
// updated_at); other date keys produce nothing.
func buildDateClause(key string, value any) (Clause, bool) {
	s, _ := value.(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Clause{}, false
	}
	epoch := float64(t.Unix())

	switch {
	case strings.HasSuffix(key, "_after"):
		c, err := NewRange(strings.TrimSuffix(key, "_after")+"_at", &epoch, nil)
		return c, err == nil
	case strings.HasSuffix(key, "_before"):
		c, err := NewRange(strings.TrimSuffix(key, "_before")+"_at", nil, &epoch)
		return c, err == nil
	default:
		return Clause{}, false
	}
}
