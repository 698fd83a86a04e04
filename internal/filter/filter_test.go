package filter

import (
	"reflect"
	"testing"
)

func sample() []Listing {
	return []Listing{
		{ID: "1", Label: "Cantonments, Accra - 3BR Apartment", Price: 1500, Score: 88, DistanceKm: 2.3, Category: "apartment"},
		{ID: "2", Label: "Osu, Accra - 2BR Flat", Price: 2000, Score: 85, DistanceKm: 4.1, Category: "flat"},
		{ID: "3", Label: "East Legon, Accra - 4BR House", Price: 2500, Score: 92, DistanceKm: 5.2, Category: "house"},
		{ID: "4", Label: "Achimota, Accra - 1BR Studio", Price: 800, Score: 72, DistanceKm: 7.1, Category: "studio"},
	}
}

func TestApplyIdentity(t *testing.T) {
	items := sample()
	got := Apply(items, State{})
	if !reflect.DeepEqual(got, items) {
		t.Fatalf("default state should return all items in order")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	items := sample()
	before := make([]Listing, len(items))
	copy(before, items)
	Apply(items, State{PriceMax: 1000, Sort: SortPriceAsc})
	if !reflect.DeepEqual(items, before) {
		t.Fatalf("input slice was mutated")
	}
}

func TestApplyIdempotent(t *testing.T) {
	state := State{SearchText: "accra", PriceMin: 500, PriceMax: 2100, MinScore: 80}
	once := Apply(sample(), state)
	twice := Apply(once, state)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %v vs %v", once, twice)
	}
}

func TestApplyPriceRange(t *testing.T) {
	items := []Listing{{ID: "a", Price: 800}, {ID: "b", Price: 1500}, {ID: "c", Price: 2000}}
	got := Apply(items, State{PriceMin: 500, PriceMax: 1600})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestApplySearchText(t *testing.T) {
	got := Apply(sample(), State{SearchText: "OSU"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("case-insensitive substring match failed: %v", got)
	}
}

func TestApplyCategory(t *testing.T) {
	if got := Apply(sample(), State{Category: "all"}); len(got) != 4 {
		t.Fatalf(`category "all" should match everything, got %d`, len(got))
	}
	got := Apply(sample(), State{Category: "house"})
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("category equality failed: %v", got)
	}
}

func TestApplyDistanceAndScore(t *testing.T) {
	got := Apply(sample(), State{MaxDistanceKm: 5, MinScore: 86})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only listing 1, got %v", got)
	}
}

func TestSortStability(t *testing.T) {
	items := []Listing{
		{ID: "a", Price: 1500, Score: 90},
		{ID: "b", Price: 800, Score: 80},
		{ID: "c", Price: 1500, Score: 70},
	}
	got := Apply(items, State{Sort: SortPriceAsc})
	if got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("equal-price items must keep fetch order, got %v", got)
	}
}

func TestSortKeys(t *testing.T) {
	items := sample()
	byScore := Apply(items, State{Sort: SortScoreDesc})
	if byScore[0].ID != "3" || byScore[len(byScore)-1].ID != "4" {
		t.Fatalf("score_desc failed: %v", byScore)
	}
	byDistance := Apply(items, State{Sort: SortDistanceAsc})
	if byDistance[0].ID != "1" {
		t.Fatalf("distance_asc failed: %v", byDistance)
	}
}

func TestApplyEmptyResult(t *testing.T) {
	got := Apply(sample(), State{PriceMin: 10000})
	if got == nil {
		t.Fatalf("empty result must be a non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestValidSortKey(t *testing.T) {
	for _, key := range []SortKey{SortNone, SortScoreDesc, SortPriceAsc, SortDistanceAsc} {
		if !ValidSortKey(key) {
			t.Fatalf("expected %q to be valid", key)
		}
	}
	if ValidSortKey("rent_desc") {
		t.Fatalf("expected unknown key to be invalid")
	}
}
