// Package testutils provides catalogs, reference stores and collectors
// shared by tests across packages.
package testutils

import (
	"github.com/ahrav/go-compass/internal/domain"
)

// LetterCatalog returns two questions whose options tag a single category
// each, "A" or "B".
func LetterCatalog() *domain.Catalog {
	q := func(id int) domain.Question {
		return domain.Question{
			ID:     id,
			Prompt: "Pick a letter",
			Options: []domain.Option{
				{ID: "A", Label: "A", Weights: []domain.Weight{{Category: "A", Points: 1}}},
				{ID: "B", Label: "B", Weights: []domain.Weight{{Category: "B", Points: 1}}},
			},
		}
	}
	return &domain.Catalog{Name: "letters", Version: "1.0.0", Questions: []domain.Question{q(1), q(2)}}
}

// domainOptions tags one domain per option: A STEM, B Humanities,
// C Creative, D Business.
func domainOptions() []domain.Option {
	out := make([]domain.Option, 0, len(domain.Domains()))
	for i, d := range domain.Domains() {
		id := string(rune('A' + i))
		out = append(out, domain.Option{
			ID:      id,
			Label:   "I like " + d.String(),
			Weights: []domain.Weight{{Category: d.String(), Points: 1}},
		})
	}
	return out
}

// DomainCatalog returns four questions in two themes, "Interests" (1, 2)
// and "Strengths" (3, 4). Option A tags STEM, B Humanities, C Creative and
// D Business.
func DomainCatalog() *domain.Catalog {
	themes := []string{"Interests", "Interests", "Strengths", "Strengths"}
	cat := &domain.Catalog{
		Name:     "domains",
		Version:  "1.0.0",
		Families: []domain.Family{domain.DomainFamily()},
	}
	for i, theme := range themes {
		cat.Questions = append(cat.Questions, domain.Question{
			ID:      i + 1,
			Theme:   theme,
			Prompt:  "Which do you prefer?",
			Options: domainOptions(),
		})
	}
	return cat
}

// RoleCareerCatalog returns three weighted questions over the domain, role
// type and career line families. The Creative domain reads CreativeArts.
// Answering A everywhere yields STEM, Technical and Linear; answering B
// everywhere yields Creative, Creative and Non-linear; answering E
// everywhere scores the Creative role type alone.
func RoleCareerCatalog() *domain.Catalog {
	w := func(pairs ...any) []domain.Weight {
		var out []domain.Weight
		for i := 0; i < len(pairs); i += 2 {
			out = append(out, domain.Weight{Category: pairs[i].(string), Points: pairs[i+1].(int)})
		}
		return out
	}
	cat := &domain.Catalog{
		Name:    "role-career",
		Version: "1.0.0",
		Families: []domain.Family{
			domain.RoleCareerDomainFamily(),
			domain.RoleTypeFamily(),
			domain.CareerLineFamily(),
		},
		DomainCategories: domain.RoleCareerDomainCategories(),
	}
	for id := 1; id <= 3; id++ {
		cat.Questions = append(cat.Questions, domain.Question{
			ID:     id,
			Theme:  "Work",
			Prompt: "How do you like to work?",
			Options: []domain.Option{
				{ID: "A", Label: "Building things", Weights: w("Technical", 3, "Linear", 2, "STEM", 2)},
				{ID: "B", Label: "Making things", Weights: w("Creative", 3, "Non-linear", 2, domain.CategoryCreativeArts, 2)},
				{ID: "C", Label: "Running things", Weights: w("Leadership", 3, "Diagonal", 1, "Business", 2)},
				{ID: "D", Label: "No preference"},
				{ID: "E", Label: "Thinking up new things", Weights: w("Creative", 4, "Non-linear", 1)},
			},
		})
	}
	return cat
}

// Answers answers every catalog question with option.
func Answers(cat *domain.Catalog, option string) map[int]string {
	out := make(map[int]string, len(cat.Questions))
	for _, q := range cat.Questions {
		out[q.ID] = option
	}
	return out
}

// Record builds a merge-policy academic record from name/score pairs.
// It panics on invalid input, which only a broken test can produce.
func Record(pairs ...any) domain.AcademicRecord {
	r := domain.NewAcademicRecord(domain.DuplicateMerge)
	for i := 0; i < len(pairs); i += 2 {
		var err error
		r, err = r.Add(pairs[i].(string), pairs[i+1].(float64))
		if err != nil {
			panic(err)
		}
	}
	return r
}
