package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		wantErr bool
	}{
		{"valid", Listing{Title: "Bike", Price: 100}, false},
		{"free is valid", Listing{Title: "Bike"}, false},
		{"missing title", Listing{Price: 100}, true},
		{"blank title", Listing{Title: "   "}, true},
		{"negative price", Listing{Title: "Bike", Price: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.listing.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	l := Listing{
		ID:          "abc-123",
		Title:       "Mountain Bike",
		Description: "Barely used",
		Category:    "sports",
		Price:       450.5,
		Location:    &GeoPoint{Lat: 40.7, Lon: -74},
		Tags:        []string{"vintage", "retro"},
		Status:      "active",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		UserID:      "user-1",
		Views:       42,
		Rating:      4.5,
		Attrs:       map[string]string{"condition": "good"},
	}

	got := FromFields(l.ID, l.Fields())

	assert.Equal(t, l, got)
}

func TestFields_Encoding(t *testing.T) {
	l := Listing{
		ID:       "abc",
		Title:    "Bike",
		Price:    450.5,
		Location: &GeoPoint{Lat: 40.7, Lon: -74},
		Tags:     []string{"a", "b"},
	}

	f := l.Fields()

	assert.Equal(t, "450.5", f[FieldPrice])
	assert.Equal(t, "-74,40.7", f[FieldLocation], "geo fields store lon,lat")
	assert.Equal(t, "a,b", f[FieldTags])
	assert.NotContains(t, f, FieldCreatedAt, "zero timestamps stay absent")
}

func TestFromFields_KeyDerivedIDWins(t *testing.T) {
	got := FromFields("real-id", map[string]string{"id": "stale-id", "title": "Bike"})

	assert.Equal(t, "real-id", got.ID)
}

func TestFromFields_UnknownFieldsLandInAttrs(t *testing.T) {
	got := FromFields("abc", map[string]string{
		"title":    "Bike",
		"bedrooms": "3",
	})

	assert.Equal(t, map[string]string{"bedrooms": "3"}, got.Attrs)
}

func TestFromFields_MalformedValues(t *testing.T) {
	got := FromFields("abc", map[string]string{
		"price":    "not-a-number",
		"location": "garbage",
		"views":    "many",
	})

	assert.Zero(t, got.Price)
	assert.Nil(t, got.Location)
	assert.Zero(t, got.Views)
}

func TestUpdateFields(t *testing.T) {
	f, err := UpdateFields(map[string]any{
		"price":    300,
		"tags":     []any{"vintage", "retro"},
		"location": map[string]any{"lat": 40.7, "lon": -74.0},
		"views":    10,
		"status":   "sold",
	})
	require.NoError(t, err)

	assert.Equal(t, "300", f["price"])
	assert.Equal(t, "vintage,retro", f["tags"])
	assert.Equal(t, "-74,40.7", f["location"])
	assert.Equal(t, "10", f["views"])
	assert.Equal(t, "sold", f["status"])
}

func TestUpdateFields_RejectsID(t *testing.T) {
	_, err := UpdateFields(map[string]any{"id": "other"})
	assert.Error(t, err)
}

func TestUpdateFields_RejectsBadValues(t *testing.T) {
	_, err := UpdateFields(map[string]any{"price": "expensive"})
	assert.Error(t, err)

	_, err = UpdateFields(map[string]any{"location": "nowhere"})
	assert.Error(t, err)

	_, err = UpdateFields(map[string]any{"created_at": "the other day"})
	assert.Error(t, err)
}

func TestUpdateFields_DateEncodings(t *testing.T) {
	f, err := UpdateFields(map[string]any{"created_at": "2024-03-15"})
	require.NoError(t, err)

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, "1710460800", f["created_at"])
	assert.EqualValues(t, 1710460800, want)
}
