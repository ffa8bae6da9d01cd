// Package report renders computed results as narrative text and PDF
// documents and stores them on disk.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahrav/go-compass/internal/domain"
)

// closingThoughts ends every report.
const closingThoughts = "You're on the path to a promising global career. Remember, career discovery " +
	"is a journey. Use this insight to explore, experiment, and grow into your full potential. " +
	"Stay curious, stay inspired."

// view is the render-ready shape of a result shared by every renderer.
type view struct {
	Title       string
	Student     domain.Student
	GeneratedAt time.Time
	ResultID    string
	Catalog     string
	Variant     domain.Variant

	// Categories is the full score map, highest first.
	Categories []domain.CategoryScore
	// Families breaks the score map down by role type and career line when
	// the catalog scored them.
	Families []familyView
	Ranking  []domain.DomainBlend

	Subjects []subjectView

	Matched      bool
	Key          string
	Headline     string
	Major        string
	Minor        string
	Message      string
	Universities []string
	Careers      []string
	Companies    []string
	EntryRoles   []string

	Closing string
}

type familyView struct {
	Heading  string
	Scores   []domain.CategoryScore
	Dominant string
}

type subjectView struct {
	Name    string
	Scores  []float64
	Average float64
}

func newView(result domain.Result) view {
	rec := result.Recommendation
	guidance := rec.Guidance()

	v := view{
		Title:        "Career Guidance Report",
		Student:      result.Student,
		GeneratedAt:  result.GeneratedAt,
		ResultID:     result.ID,
		Catalog:      result.Catalog,
		Variant:      rec.Variant,
		Categories:   result.Scores.Ranked(),
		Ranking:      rec.Ranking,
		Matched:      rec.Matched,
		Key:          rec.Key.String(),
		Major:        guidance.Major,
		Minor:        guidance.Minor,
		Message:      strings.TrimSpace(guidance.Message),
		Universities: guidance.Universities,
		Careers:      guidance.Careers,
		Companies:    guidance.Companies,
		EntryRoles:   guidance.EntryRoles,
		Closing:      closingThoughts,
	}
	if v.Student.Name == "" {
		v.Student.Name = "Student"
	}

	if rec.Variant == domain.VariantRoleCareer {
		v.Families = familyViews(result.Scores)
		v.Headline = fmt.Sprintf("%s domain, %s role, %s career line", rec.Top, rec.Role, rec.Line)
	} else {
		v.Headline = fmt.Sprintf("%s with %s", rec.Top, rec.Second)
	}

	for _, s := range result.AcademicRecord.Subjects {
		v.Subjects = append(v.Subjects, subjectView{Name: s.Name, Scores: s.Scores, Average: s.Average()})
	}
	return v
}

// familyViews ranks the role type and career line families, skipping a
// family none of whose members the catalog scored.
func familyViews(scores domain.CategoryScores) []familyView {
	families := []struct {
		heading string
		family  domain.Family
	}{
		{"Career Line Analysis (Progression Style)", domain.CareerLineFamily()},
		{"Role Type Analysis (Preferred Work Environment)", domain.RoleTypeFamily()},
	}

	scored := make(map[string]struct{}, scores.Len())
	for _, c := range scores.Order {
		scored[c] = struct{}{}
	}

	var out []familyView
	for _, f := range families {
		var present []string
		for _, c := range f.family.Categories {
			if _, ok := scored[c]; ok {
				present = append(present, c)
			}
		}
		if len(present) == 0 {
			continue
		}
		ranked := scores.RankedWithin(domain.Family{Name: f.family.Name, Categories: present})
		out = append(out, familyView{Heading: f.heading, Scores: ranked, Dominant: ranked[0].Category})
	}
	return out
}
