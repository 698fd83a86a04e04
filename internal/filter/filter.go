package filter

import (
	"sort"
	"strings"
)

// Listing is the read-side view the pipeline operates on. Properties, job
// postings and service providers all project into it.
type Listing struct {
	ID         string
	Label      string
	Price      int64
	Score      float64
	DistanceKm float64
	Category   string
	Verified   bool
}

type SortKey string

const (
	SortNone        SortKey = ""
	SortScoreDesc   SortKey = "score_desc"
	SortPriceAsc    SortKey = "price_asc"
	SortDistanceAsc SortKey = "distance_asc"
)

// State holds the active constraints. The zero value is the identity filter:
// Apply(items, State{}) returns every item in fetch order.
type State struct {
	SearchText    string
	PriceMin      int64
	PriceMax      int64
	MinScore      float64
	MaxDistanceKm float64
	Category      string
	Sort          SortKey
}

// Apply runs the predicates conjunctively in a fixed order: text match, price
// range, minimum score, distance radius, category equality. It always returns
// a fresh slice and never mutates items, so it is safe to re-run on every
// state change against the latest snapshot.
func Apply(items []Listing, state State) []Listing {
	out := make([]Listing, 0, len(items))
	search := strings.ToLower(strings.TrimSpace(state.SearchText))
	for _, item := range items {
		if search != "" && !strings.Contains(strings.ToLower(item.Label), search) {
			continue
		}
		if state.PriceMin > 0 && item.Price < state.PriceMin {
			continue
		}
		if state.PriceMax > 0 && item.Price > state.PriceMax {
			continue
		}
		if state.MinScore > 0 && item.Score < state.MinScore {
			continue
		}
		if state.MaxDistanceKm > 0 && item.DistanceKm > state.MaxDistanceKm {
			continue
		}
		if state.Category != "" && state.Category != "all" && item.Category != state.Category {
			continue
		}
		out = append(out, item)
	}
	if state.Sort != SortNone {
		Sort(out, state.Sort)
	}
	return out
}

// Sort orders listings in place. The sort is stable so equal keys keep their
// original fetch order.
func Sort(items []Listing, key SortKey) {
	switch key {
	case SortScoreDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case SortDistanceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].DistanceKm < items[j].DistanceKm })
	}
}

func ValidSortKey(key SortKey) bool {
	switch key {
	case SortNone, SortScoreDesc, SortPriceAsc, SortDistanceAsc:
		return true
	default:
		return false
	}
}
