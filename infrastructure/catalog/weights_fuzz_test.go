package catalog

import (
	"errors"
	"strings"
	"testing"
)

// FuzzParseWeights checks the parser never panics and that every accepted
// expression yields clean, unique categories that survive a format/parse
// round trip.
func FuzzParseWeights(f *testing.F) {
	f.Add("Specialist=3, Linear=2")
	f.Add("{'Specialist': 3, 'Linear': 2}")
	f.Add(`{"Human Resources": 1}`)
	f.Add("")
	f.Add("{}")
	f.Add("{'a:b': 1}")
	f.Add("x=1=2")
	f.Add(",,,")
	f.Add("{'unterminated': 1")
	f.Add("Técnico=9, 🚀=1")

	f.Fuzz(func(t *testing.T, expr string) {
		weights, err := ParseWeights(expr)
		if err != nil {
			if !errors.Is(err, ErrWeightSyntax) {
				t.Errorf("ParseWeights(%q) error %v does not wrap ErrWeightSyntax", expr, err)
			}
			return
		}

		seen := make(map[string]struct{}, len(weights))
		roundTrips := true
		for _, w := range weights {
			if w.Category == "" || strings.TrimSpace(w.Category) != w.Category {
				t.Errorf("ParseWeights(%q) produced untrimmed category %q", expr, w.Category)
			}
			if _, dup := seen[w.Category]; dup {
				t.Errorf("ParseWeights(%q) produced duplicate category %q", expr, w.Category)
			}
			seen[w.Category] = struct{}{}
			// A leading brace would be read back as a dict.
			if strings.HasPrefix(w.Category, "{") {
				roundTrips = false
			}
		}

		if !roundTrips || len(weights) == 0 {
			return
		}
		again, err := ParseWeights(FormatWeights(weights))
		if err != nil {
			t.Fatalf("re-parsing %q failed: %v", FormatWeights(weights), err)
		}
		if len(again) != len(weights) {
			t.Fatalf("round trip of %q changed length: %v vs %v", expr, weights, again)
		}
		for i := range weights {
			if weights[i] != again[i] {
				t.Errorf("round trip of %q changed weight %d: %v vs %v", expr, i, weights[i], again[i])
			}
		}
	})
}
