package facet

import (
	"fmt"
	"math"
	"sort"

	"github.com/classima/searchd/internal/domain/search"
)

// Recommendation types.
const (
	RecommendCategory   = "category"
	RecommendPriceRange = "price_range"
)

// categoryFrequencyThreshold is the share of history a category must reach
// before it is recommended.
const categoryFrequencyThreshold = 0.2

// PriceWindow is a recommended price range.
type PriceWindow struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Recommendation is a best-effort filter suggestion derived from a user's
// search history, ranked by confidence.
type Recommendation struct {
	Type       string  `json:"type"`
	Value      any     `json:"value"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Recommend derives up to three recommendations from prior searches:
// categories used in more than 20% of the history (excluding the current
// one) and an averaged price window widened by -20%/+20%.
func Recommend(history []search.Params, current *search.Params) []Recommendation {
	if len(history) == 0 {
		return nil
	}

	var recs []Recommendation

	for _, c := range frequentCategories(history) {
		if current != nil && c.value == current.Category {
			continue
		}
		recs = append(recs, Recommendation{
			Type:       RecommendCategory,
			Value:      c.value,
			Reason:     fmt.Sprintf("You often search in %s", c.value),
			Confidence: c.frequency,
		})
	}

	if w, ok := averagePriceWindow(history); ok {
		recs = append(recs, Recommendation{
			Type:       RecommendPriceRange,
			Value:      w,
			Reason:     "Based on your usual price range",
			Confidence: 0.7,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Confidence > recs[j].Confidence
	})
	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

type categoryFrequency struct {
	value     string
	frequency float64
}

func frequentCategories(history []search.Params) []categoryFrequency {
	counts := make(map[string]int)
	for _, p := range history {
		if p.Category != "" {
			counts[p.Category]++
		}
	}

	var out []categoryFrequency
	for value, count := range counts {
		f := float64(count) / float64(len(history))
		if f > categoryFrequencyThreshold {
			out = append(out, categoryFrequency{value: value, frequency: f})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].frequency != out[j].frequency {
			return out[i].frequency > out[j].frequency
		}
		return out[i].value < out[j].value
	})
	return out
}

func averagePriceWindow(history []search.Params) (PriceWindow, bool) {
	var sumMin, sumMax float64
	var n int
	for _, p := range history {
		if p.PriceMin > 0 && p.PriceMax > 0 {
			sumMin += p.PriceMin
			sumMax += p.PriceMax
			n++
		}
	}
	if n == 0 {
		return PriceWindow{}, false
	}

	return PriceWindow{
		Min: math.Floor(sumMin / float64(n) * 0.8),
		Max: math.Ceil(sumMax / float64(n) * 1.2),
	}, true
}
