package domain

import (
	"slices"
	"sort"
)

// CategoryScore is one entry of a Category Score Map.
type CategoryScore struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
}

// CategoryScores is the Category Score Map: every known category with its
// accumulated total, in catalog declaration order.
type CategoryScores struct {
	Order  []string       `json:"order"`
	Totals map[string]int `json:"totals"`
}

// NewCategoryScores returns a map with every category initialized to zero.
func NewCategoryScores(categories []string) CategoryScores {
	totals := make(map[string]int, len(categories))
	order := make([]string, 0, len(categories))
	for _, c := range categories {
		if _, ok := totals[c]; ok {
			continue
		}
		totals[c] = 0
		order = append(order, c)
	}
	return CategoryScores{Order: order, Totals: totals}
}

// Add credits points to category, registering it if it was unknown.
func (s *CategoryScores) Add(category string, points int) {
	if s.Totals == nil {
		s.Totals = make(map[string]int)
	}
	if _, ok := s.Totals[category]; !ok {
		s.Order = append(s.Order, category)
	}
	s.Totals[category] += points
}

// Get returns the total for category, zero when unknown.
func (s CategoryScores) Get(category string) int { return s.Totals[category] }

// Len returns the number of categories present.
func (s CategoryScores) Len() int { return len(s.Order) }

// Entries returns the scores in declaration order.
func (s CategoryScores) Entries() []CategoryScore {
	out := make([]CategoryScore, len(s.Order))
	for i, c := range s.Order {
		out[i] = CategoryScore{Category: c, Total: s.Totals[c]}
	}
	return out
}

// Ranked returns the scores sorted descending by total. Equal totals keep
// declaration order.
func (s CategoryScores) Ranked() []CategoryScore {
	out := s.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// RankedWithin returns the members of one family sorted descending by
// total, ties kept in family declaration order.
func (s CategoryScores) RankedWithin(f Family) []CategoryScore {
	out := make([]CategoryScore, 0, len(f.Categories))
	for _, c := range f.Categories {
		out = append(out, CategoryScore{Category: c, Total: s.Totals[c]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Dominant returns the family member with the highest total. The first
// declared member wins ties. The boolean is false for an empty family.
func (s CategoryScores) Dominant(f Family) (CategoryScore, bool) {
	if len(f.Categories) == 0 {
		return CategoryScore{}, false
	}
	best := CategoryScore{Category: f.Categories[0], Total: s.Totals[f.Categories[0]]}
	for _, c := range f.Categories[1:] {
		if t := s.Totals[c]; t > best.Total {
			best = CategoryScore{Category: c, Total: t}
		}
	}
	return best, true
}

// Equal reports whether two maps hold the same categories, order and totals.
func (s CategoryScores) Equal(other CategoryScores) bool {
	if !slices.Equal(s.Order, other.Order) {
		return false
	}
	for _, c := range s.Order {
		if s.Totals[c] != other.Totals[c] {
			return false
		}
	}
	return true
}
