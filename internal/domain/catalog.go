package domain

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultTheme groups questions that declare no theme.
const DefaultTheme = "General"

// Weight is a structured (category, points) pair attached to an option.
// Simple tag-based options carry one Weight of 1 per tag.
type Weight struct {
	Category string `json:"category" yaml:"category"`
	Points   int    `json:"points" yaml:"points"`
}

// Option is one selectable answer of a question.
type Option struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Weights []Weight `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Neutral reports whether choosing the option contributes nothing.
func (o Option) Neutral() bool { return len(o.Weights) == 0 }

// Question is a single multiple-choice item.
type Question struct {
	ID      int      `json:"id" yaml:"id"`
	Theme   string   `json:"theme,omitempty" yaml:"theme,omitempty"`
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []Option `json:"options" yaml:"options"`
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// OptionIDs returns the option ids in declaration order.
func (q Question) OptionIDs() []string {
	ids := make([]string, len(q.Options))
	for i, o := range q.Options {
		ids[i] = o.ID
	}
	return ids
}

// Family is a named, ordered group of categories, such as the role types.
// Member order is the tie-break order when picking a dominant member.
type Family struct {
	Name       string   `json:"name" yaml:"name"`
	Categories []string `json:"categories" yaml:"categories"`
}

// Contains reports whether category is a member of the family.
func (f Family) Contains(category string) bool {
	return slices.Contains(f.Categories, category)
}

// Catalog is an immutable, validated question catalog.
type Catalog struct {
	Name        string     `json:"name" yaml:"name"`
	Version     string     `json:"version" yaml:"version"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Families    []Family   `json:"families,omitempty" yaml:"families,omitempty"`
	// DomainCategories names the category that carries a domain's
	// psychometric total when it is not the domain's own name, e.g. when
	// Creative is also a role type.
	DomainCategories map[Domain]string `json:"domain_categories,omitempty" yaml:"domain_categories,omitempty"`
	Questions        []Question        `json:"questions" yaml:"questions"`
}

// DomainCategory returns the category holding the psychometric total of d.
func (c *Catalog) DomainCategory(d Domain) string {
	if cat, ok := c.DomainCategories[d]; ok {
		return cat
	}
	return d.String()
}

// DomainOrder returns the domains in tie-break order. Domains follow the
// member order of the catalog's domain family, each matched through
// category (DomainCategory when nil); domains the family does not list come
// after them in declaration order. Without a domain family this is
// Domains().
func (c *Catalog) DomainOrder(category func(Domain) string) []Domain {
	family, ok := c.Family(FamilyDomain)
	if !ok {
		return Domains()
	}
	if category == nil {
		category = c.DomainCategory
	}
	owner := make(map[string]Domain, len(Domains()))
	for _, d := range Domains() {
		if _, taken := owner[category(d)]; !taken {
			owner[category(d)] = d
		}
	}

	order := make([]Domain, 0, len(Domains()))
	placed := make(map[Domain]bool, len(Domains()))
	for _, cat := range family.Categories {
		if d, ok := owner[cat]; ok && !placed[d] {
			order = append(order, d)
			placed[d] = true
		}
	}
	for _, d := range Domains() {
		if !placed[d] {
			order = append(order, d)
		}
	}
	return order
}

// Categories returns every known category: declared family members first,
// in declaration order, then any category referenced by an option that no
// family declares, in order of first reference.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(cat string) {
		if _, ok := seen[cat]; ok {
			return
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	for _, f := range c.Families {
		for _, cat := range f.Categories {
			add(cat)
		}
	}
	for _, q := range c.Questions {
		for _, o := range q.Options {
			for _, w := range o.Weights {
				add(w.Category)
			}
		}
	}
	return out
}

// Family returns the family with the given name.
func (c *Catalog) Family(name string) (Family, bool) {
	for _, f := range c.Families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

// Question returns the question with the given id.
func (c *Catalog) Question(id int) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Themes returns the distinct question themes in order of first
// appearance. Questions without a theme fall under DefaultTheme.
func (c *Catalog) Themes() []string {
	var themes []string
	for _, q := range c.Questions {
		t := themeOf(q)
		if !slices.Contains(themes, t) {
			themes = append(themes, t)
		}
	}
	return themes
}

// QuestionsInTheme returns the questions of one theme in catalog order.
func (c *Catalog) QuestionsInTheme(theme string) []Question {
	var out []Question
	for _, q := range c.Questions {
		if themeOf(q) == theme {
			out = append(out, q)
		}
	}
	return out
}

func themeOf(q Question) string {
	if strings.TrimSpace(q.Theme) == "" {
		return DefaultTheme
	}
	return q.Theme
}

// MissingAnswers returns, in catalog order, the ids of questions that have
// no answer in answers.
func (c *Catalog) MissingAnswers(answers map[int]string) []int {
	var missing []int
	for _, q := range c.Questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// CheckComplete returns an *IncompleteError when any question is unanswered.
func (c *Catalog) CheckComplete(answers map[int]string) error {
	if missing := c.MissingAnswers(answers); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

// Validate checks the structural rules every scorable catalog must obey.
// Any violation is returned as a *CatalogError.
func (c *Catalog) Validate() error {
	source := c.Name
	if len(c.Questions) == 0 {
		return NewCatalogError(source, "questions", fmt.Errorf("%w: catalog has no questions", ErrEmptyValue))
	}

	declared := make(map[string]string)
	familyNames := make(map[string]struct{})
	for _, f := range c.Families {
		if f.Name == "" {
			return NewCatalogError(source, "families", fmt.Errorf("%w: family name", ErrEmptyValue))
		}
		if _, dup := familyNames[f.Name]; dup {
			return NewCatalogError(source, "family "+f.Name, fmt.Errorf("declared twice"))
		}
		familyNames[f.Name] = struct{}{}
		if len(f.Categories) == 0 {
			return NewCatalogError(source, "family "+f.Name, fmt.Errorf("%w: no categories", ErrEmptyValue))
		}
		// A category may belong to several families, e.g. Creative is both
		// a domain and a role type. Within one family it is listed once.
		members := make(map[string]struct{}, len(f.Categories))
		for _, cat := range f.Categories {
			if strings.TrimSpace(cat) == "" {
				return NewCatalogError(source, "family "+f.Name, fmt.Errorf("%w: category name", ErrEmptyValue))
			}
			if _, dup := members[cat]; dup {
				return NewCatalogError(source, "family "+f.Name, fmt.Errorf("category %q listed twice", cat))
			}
			members[cat] = struct{}{}
			declared[cat] = f.Name
		}
	}

	if err := c.validateDomains(declared); err != nil {
		return err
	}

	ids := make(map[int]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		loc := fmt.Sprintf("question %d", q.ID)
		if _, dup := ids[q.ID]; dup {
			return NewCatalogError(source, loc, fmt.Errorf("duplicate question id"))
		}
		ids[q.ID] = struct{}{}
		if strings.TrimSpace(q.Prompt) == "" {
			return NewCatalogError(source, loc, fmt.Errorf("%w: prompt", ErrEmptyValue))
		}
		if len(q.Options) < 2 {
			return NewCatalogError(source, loc, fmt.Errorf("needs at least 2 options, has %d", len(q.Options)))
		}
		optIDs := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			oloc := fmt.Sprintf("%s option %s", loc, o.ID)
			if o.ID == "" {
				return NewCatalogError(source, loc, fmt.Errorf("%w: option id", ErrEmptyValue))
			}
			if _, dup := optIDs[o.ID]; dup {
				return NewCatalogError(source, oloc, fmt.Errorf("duplicate option id"))
			}
			optIDs[o.ID] = struct{}{}
			for _, w := range o.Weights {
				if strings.TrimSpace(w.Category) == "" {
					return NewCatalogError(source, oloc, fmt.Errorf("%w: weight category", ErrEmptyValue))
				}
				if w.Points < 0 {
					return NewCatalogError(source, oloc, fmt.Errorf("negative weight %d for %s", w.Points, w.Category))
				}
				if len(c.Families) > 0 {
					if _, ok := declared[w.Category]; !ok {
						return NewCatalogError(source, oloc, fmt.Errorf("%w: %q", ErrUnknownCategory, w.Category))
					}
				}
			}
		}
	}
	return nil
}

// validateDomains checks the domain category overrides and that every
// member of a domain family carries some domain.
func (c *Catalog) validateDomains(declared map[string]string) error {
	source := c.Name
	for d, cat := range c.DomainCategories {
		if !d.Valid() {
			return NewCatalogError(source, "domain_categories", fmt.Errorf("%w: domain %s", ErrUnknownCategory, d))
		}
		if strings.TrimSpace(cat) == "" {
			return NewCatalogError(source, "domain_categories "+d.String(), fmt.Errorf("%w: category name", ErrEmptyValue))
		}
	}

	owners := make(map[string]Domain, len(Domains()))
	for _, d := range Domains() {
		cat := c.DomainCategory(d)
		if other, dup := owners[cat]; dup {
			return NewCatalogError(source, "domain_categories", fmt.Errorf("%s and %s both read category %q", other, d, cat))
		}
		owners[cat] = d
		if _, overridden := c.DomainCategories[d]; overridden && len(c.Families) > 0 {
			if _, ok := declared[cat]; !ok {
				return NewCatalogError(source, "domain_categories "+d.String(), fmt.Errorf("%w: %q", ErrUnknownCategory, cat))
			}
		}
	}

	family, ok := c.Family(FamilyDomain)
	if !ok {
		return nil
	}
	for _, cat := range family.Categories {
		if _, ok := owners[cat]; !ok {
			return NewCatalogError(source, "family "+FamilyDomain, fmt.Errorf("%w: %q carries no domain", ErrUnknownCategory, cat))
		}
	}
	return nil
}
