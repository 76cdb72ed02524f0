package facet

import (
	"testing"

	"github.com/classima/searchd/internal/domain/search"
)

func TestRecommend_EmptyHistory(t *testing.T) {
	if recs := Recommend(nil, nil); recs != nil {
		t.Errorf("expected no recommendations, got %v", recs)
	}
}

func TestRecommend_FrequentCategory(t *testing.T) {
	history := []search.Params{
		{Category: "electronics"},
		{Category: "electronics"},
		{Category: "sports"},
		{Category: "books"},
	}

	recs := Recommend(history, nil)

	var found bool
	for _, r := range recs {
		if r.Type == RecommendCategory && r.Value == "electronics" {
			found = true
			if r.Confidence != 0.5 {
				t.Errorf("expected confidence 0.5, got %v", r.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("expected electronics recommendation, got %v", recs)
	}

	// sports and books each appear in 25% of the history, above the 20% bar
	if len(recs) < 3 {
		t.Errorf("expected category recommendations above threshold, got %v", recs)
	}
}

func TestRecommend_BelowThresholdDropped(t *testing.T) {
	history := make([]search.Params, 10)
	history[0] = search.Params{Category: "books"}
	for i := 1; i < 10; i++ {
		history[i] = search.Params{Category: "electronics"}
	}

	recs := Recommend(history, nil)
	for _, r := range recs {
		if r.Value == "books" {
			t.Error("10% category must not be recommended")
		}
	}
}

func TestRecommend_ExcludesCurrentCategory(t *testing.T) {
	history := []search.Params{
		{Category: "electronics"},
		{Category: "electronics"},
	}
	current := &search.Params{Category: "electronics"}

	recs := Recommend(history, current)
	for _, r := range recs {
		if r.Type == RecommendCategory && r.Value == "electronics" {
			t.Error("current category must be excluded")
		}
	}
}

func TestRecommend_PriceWindow(t *testing.T) {
	history := []search.Params{
		{PriceMin: 100, PriceMax: 500},
		{PriceMin: 200, PriceMax: 700},
		{Category: "books"}, // no price bounds, excluded from the average
	}

	recs := Recommend(history, nil)

	var window *PriceWindow
	for _, r := range recs {
		if r.Type == RecommendPriceRange {
			w := r.Value.(PriceWindow)
			window = &w
			if r.Confidence != 0.7 {
				t.Errorf("expected confidence 0.7, got %v", r.Confidence)
			}
		}
	}
	if window == nil {
		t.Fatal("expected a price range recommendation")
	}

	// avg min 150 * 0.8 = 120, avg max 600 * 1.2 = 720
	if window.Min != 120 || window.Max != 720 {
		t.Errorf("expected window [120, 720], got %+v", window)
	}
}

func TestRecommend_CapsAtThree(t *testing.T) {
	history := []search.Params{
		{Category: "electronics", PriceMin: 100, PriceMax: 500},
		{Category: "sports", PriceMin: 100, PriceMax: 500},
		{Category: "books", PriceMin: 100, PriceMax: 500},
		{Category: "electronics"},
	}

	recs := Recommend(history, nil)
	if len(recs) > 3 {
		t.Errorf("expected at most 3 recommendations, got %d", len(recs))
	}
}

func TestRecommend_OrderedByConfidence(t *testing.T) {
	history := []search.Params{
		{Category: "electronics", PriceMin: 100, PriceMax: 500},
		{Category: "electronics"},
		{Category: "sports"},
	}

	recs := Recommend(history, nil)
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Confidence < recs[i].Confidence {
			t.Errorf("recommendations not sorted by confidence: %v", recs)
		}
	}
}
