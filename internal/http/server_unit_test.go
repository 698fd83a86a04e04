package http

import (
	"net/url"
	"testing"

	"github.com/saintdannyyy/shelta/internal/filter"
)

func TestParseFilterState(t *testing.T) {
	query, err := url.ParseQuery("search=East+Legon&price_min=800&price_max=1500&sort=price_asc")
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}

	state, errCode := parseFilterState(query)
	if errCode != "" {
		t.Fatalf("expected no error, got %s", errCode)
	}
	if state.SearchText != "East Legon" {
		t.Fatalf("expected search text, got %q", state.SearchText)
	}
	if state.PriceMin != 800 || state.PriceMax != 1500 {
		t.Fatalf("expected price range 800-1500, got %d-%d", state.PriceMin, state.PriceMax)
	}
	if state.Sort != filter.SortPriceAsc {
		t.Fatalf("expected price_asc sort, got %s", state.Sort)
	}
}

func TestParseFilterStateEmptyIsIdentity(t *testing.T) {
	state, errCode := parseFilterState(url.Values{})
	if errCode != "" {
		t.Fatalf("expected no error, got %s", errCode)
	}
	if state != (filter.State{}) {
		t.Fatalf("expected zero state, got %+v", state)
	}
}

func TestParseFilterStateRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"price_min=abc":                 "invalid_price_min",
		"price_max=-5":                  "invalid_price_max",
		"price_min=2000&price_max=1000": "invalid_price_range",
		"min_score=high":                "invalid_min_score",
		"max_distance_km=-1":            "invalid_max_distance",
		"sort=rating_desc":              "invalid_sort",
	}
	for raw, expect := range cases {
		query, err := url.ParseQuery(raw)
		if err != nil {
			t.Fatalf("parse query %s: %v", raw, err)
		}
		if _, errCode := parseFilterState(query); errCode != expect {
			t.Fatalf("query %s: expected %s, got %s", raw, expect, errCode)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"Basic dXNlcg==":  "",
		"Bearer":          "",
		"Bearer  spaced ": "spaced",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("header %q: expected %q, got %q", header, expect, got)
		}
	}
}
