package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TagSeparator is the separator configured for TAG fields in the listings index.
const TagSeparator = ","

// Core hash field names of the listings index schema.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldLocation    = "location"
	FieldTags        = "tags"
	FieldStatus      = "status"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldUserID      = "user_id"
	FieldViews       = "views"
	FieldRating      = "rating"
	fieldID          = "id"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Listing is the indexed projection of a marketplace listing.
// Attrs carries additional indexed attributes beyond the core schema
// (condition, bedrooms, amenities and the like).
type Listing struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Price       float64           `json:"price"`
	Location    *GeoPoint         `json:"location,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	UserID      string            `json:"user_id,omitempty"`
	Views       int               `json:"views"`
	Rating      float64           `json:"rating"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// Validate checks the minimal invariants for an indexable listing.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if l.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// Fields encodes the listing as flat hash fields for the index store.
// The location is stored as "lon,lat" (GEO field format), timestamps as
// unix seconds so range filters and histograms stay numeric.
func (l *Listing) Fields() map[string]string {
	f := make(map[string]string, 12+len(l.Attrs))
	for k, v := range l.Attrs {
		f[k] = v
	}

	f[fieldID] = l.ID
	f[FieldTitle] = l.Title
	f[FieldDescription] = l.Description
	f[FieldCategory] = l.Category
	f[FieldPrice] = formatFloat(l.Price)
	f[FieldStatus] = l.Status
	f[FieldUserID] = l.UserID
	f[FieldViews] = strconv.Itoa(l.Views)
	f[FieldRating] = formatFloat(l.Rating)

	if l.Location != nil {
		f[FieldLocation] = formatGeo(*l.Location)
	}
	if len(l.Tags) > 0 {
		f[FieldTags] = strings.Join(l.Tags, TagSeparator)
	}
	if !l.CreatedAt.IsZero() {
		f[FieldCreatedAt] = strconv.FormatInt(l.CreatedAt.Unix(), 10)
	}
	if !l.UpdatedAt.IsZero() {
		f[FieldUpdatedAt] = strconv.FormatInt(l.UpdatedAt.Unix(), 10)
	}

	return f
}

// FromFields decodes a listing from flat hash fields. Unknown fields land in Attrs.
func FromFields(id string, fields map[string]string) Listing {
	l := Listing{ID: id}

	for k, v := range fields {
		switch k {
		case fieldID:
			// key-derived id wins
		case FieldTitle:
			l.Title = v
		case FieldDescription:
			l.Description = v
		case FieldCategory:
			l.Category = v
		case FieldPrice:
			l.Price, _ = strconv.ParseFloat(v, 64)
		case FieldLocation:
			l.Location = parseGeo(v)
		case FieldTags:
			if v != "" {
				l.Tags = strings.Split(v, TagSeparator)
			}
		case FieldStatus:
			l.Status = v
		case FieldCreatedAt:
			l.CreatedAt = parseUnix(v)
		case FieldUpdatedAt:
			l.UpdatedAt = parseUnix(v)
		case FieldUserID:
			l.UserID = v
		case FieldViews:
			l.Views, _ = strconv.Atoi(v)
		case FieldRating:
			l.Rating, _ = strconv.ParseFloat(v, 64)
		default:
			if l.Attrs == nil {
				l.Attrs = make(map[string]string)
			}
			l.Attrs[k] = v
		}
	}

	return l
}

// UpdateFields encodes a partial update into hash fields. Values keep the
// same encoding rules as Fields; unknown keys pass through as attributes.
func UpdateFields(updates map[string]any) (map[string]string, error) {
	f := make(map[string]string, len(updates))

	for k, v := range updates {
		switch k {
		case fieldID:
			return nil, fmt.Errorf("field %q is immutable", k)
		case FieldPrice, FieldRating:
			n, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			f[k] = formatFloat(n)
		case FieldViews:
			n, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			f[k] = strconv.Itoa(int(n))
		case FieldLocation:
			p, err := toGeoPoint(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			f[k] = formatGeo(p)
		case FieldTags:
			f[k] = strings.Join(toStrings(v), TagSeparator)
		case FieldCreatedAt, FieldUpdatedAt:
			t, err := toTime(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			f[k] = strconv.FormatInt(t.Unix(), 10)
		default:
			f[k] = fmt.Sprint(v)
		}
	}

	return f, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatGeo(p GeoPoint) string {
	return formatFloat(p.Lon) + "," + formatFloat(p.Lat)
}

func parseGeo(s string) *GeoPoint {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	return &GeoPoint{Lat: lat, Lon: lon}
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, nil
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", t)
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unparseable date: %v", v)
	}
}

func toGeoPoint(v any) (GeoPoint, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return GeoPoint{}, fmt.Errorf("expected {lat, lon} object")
	}
	lat, err := toFloat(m["lat"])
	if err != nil {
		return GeoPoint{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := toFloat(m["lon"])
	if err != nil {
		return GeoPoint{}, fmt.Errorf("lon: %w", err)
	}
	return GeoPoint{Lat: lat, Lon: lon}, nil
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(vv, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}
