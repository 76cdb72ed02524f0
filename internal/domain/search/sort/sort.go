// Package sort maps user-facing sort keys onto index orderings.
package sort

// Field is one level of an explicit ordering.
type Field struct {
	Name string
	Desc bool
}

// Build returns the ordering for a sort key and direction. The direction
// normalizes to ascending only when sortOrder is exactly "asc"; anything
// else, including absent, is descending. Unknown sort keys fall through to
// relevance, expressed as an empty ordering (score order).
func Build(sortBy, sortOrder string) []Field {
	desc := sortOrder != "asc"

	switch sortBy {
	case "price":
		return []Field{{Name: "price", Desc: desc}}
	case "date":
		return []Field{{Name: "created_at", Desc: desc}}
	case "popularity":
		// views is the primary key, rating breaks ties
		return []Field{{Name: "views", Desc: desc}, {Name: "rating", Desc: desc}}
	case "rating":
		return []Field{{Name: "rating", Desc: desc}}
	default:
		return nil
	}
}
