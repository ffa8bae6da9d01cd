package application

import (
	"gopkg.in/yaml.v3"
)

// CatalogConfig is the YAML form of a question catalog and the entry point
// for authoring new quizzes.
// Use CatalogConfig when writing catalogs by hand; tabular catalogs can be
// kept as CSV instead.
type CatalogConfig struct {
	// Version is the catalog's semantic version, X.Y.Z.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata names and describes the catalog.
	Metadata CatalogMetadata `yaml:"metadata" validate:"required"`
	// Families group categories; member order is the tie-break order.
	// When families are declared, every option category must belong to one.
	Families []FamilyConfig `yaml:"families" validate:"max=20,dive"`
	// DomainCategories maps a domain name to the category carrying its
	// psychometric total, for catalogs where the domain's own name is taken
	// by another family.
	DomainCategories map[string]string `yaml:"domain_categories,omitempty" validate:"max=4,dive,keys,required,endkeys,required,max=50"`
	// Questions are presented in file order.
	Questions []QuestionConfig `yaml:"questions" validate:"required,min=1,max=500,dive"`
}

// CatalogMetadata provides descriptive information about a catalog.
type CatalogMetadata struct {
	// Name identifies the catalog in logs and reports.
	Name string `yaml:"name" validate:"required,min=1,max=100"`
	// Description explains who the catalog is for.
	Description string `yaml:"description" validate:"max=1000"`
	// Variant is the recommendation variant the catalog was written for.
	// It is advisory; the engine's configured variant wins.
	Variant string `yaml:"variant,omitempty" validate:"omitempty,oneof=major_minor role_career"`
}

// FamilyConfig declares an ordered category family.
type FamilyConfig struct {
	Name       string   `yaml:"name" validate:"required,min=1,max=50"`
	Categories []string `yaml:"categories" validate:"required,min=1,max=50,dive,required,max=50"`
}

// QuestionConfig is one multiple-choice question.
type QuestionConfig struct {
	// ID must be unique and positive.
	ID int `yaml:"id" validate:"required,min=1"`
	// Theme groups questions into wizard sections.
	Theme string `yaml:"theme" validate:"max=100"`
	// Prompt is the question text.
	Prompt string `yaml:"prompt" validate:"required,max=500"`
	// Options are listed in display order.
	Options []OptionConfig `yaml:"options" validate:"required,min=2,max=8,dive"`
}

// OptionConfig is one answer choice. An option carries either tags, each
// worth one point, or explicit weights, never both. An option with neither
// is neutral.
type OptionConfig struct {
	ID    string `yaml:"id" validate:"required,optionid"`
	Label string `yaml:"label" validate:"required,max=300"`
	// Tags award one point per listed category.
	Tags []string `yaml:"tags,omitempty" validate:"max=20,dive,required"`
	// Weights is either an expression string ("Specialist=3, Linear=2" or
	// "{'Specialist': 3}") or a YAML mapping of category to points.
	Weights yaml.Node `yaml:"weights,omitempty"`
}
