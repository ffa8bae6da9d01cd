package domain

import (
	"fmt"
	"time"
)

// DomainBlend is the blended score of one domain.
type DomainBlend struct {
	Domain Domain `json:"domain"`
	// Psychometric is the category total of the domain-as-category.
	Psychometric int `json:"psychometric"`
	// Academic is the summed average score of subjects in the domain bucket.
	Academic float64 `json:"academic"`
	// Blended is Psychometric*W_p + Academic*W_a.
	Blended float64 `json:"blended"`
}

// ReferenceKey identifies a reference table row. Major/minor rows use
// Primary and Secondary; role/career rows use Primary, Role and Line.
type ReferenceKey struct {
	Variant   Variant    `json:"variant"`
	Primary   Domain     `json:"primary"`
	Secondary Domain     `json:"secondary,omitempty"`
	Role      RoleType   `json:"role,omitempty"`
	Line      CareerLine `json:"line,omitempty"`
}

// MajorMinorKey builds the key of a major/minor row.
func MajorMinorKey(primary, secondary Domain) ReferenceKey {
	return ReferenceKey{Variant: VariantMajorMinor, Primary: primary, Secondary: secondary}
}

// RoleCareerKey builds the key of a role/career row.
func RoleCareerKey(d Domain, role RoleType, line CareerLine) ReferenceKey {
	return ReferenceKey{Variant: VariantRoleCareer, Primary: d, Role: role, Line: line}
}

// String renders the key for logs and reports.
func (k ReferenceKey) String() string {
	if k.Variant == VariantRoleCareer {
		return fmt.Sprintf("%s/%s/%s", k.Primary, k.Role, k.Line)
	}
	return fmt.Sprintf("%s+%s", k.Primary, k.Secondary)
}

// ReferenceRow is pre-authored guidance text. Rows are read-only.
type ReferenceRow struct {
	Key          ReferenceKey `json:"key"`
	Major        string       `json:"major,omitempty"`
	Minor        string       `json:"minor,omitempty"`
	Message      string       `json:"message,omitempty"`
	Careers      []string     `json:"careers,omitempty"`
	Companies    []string     `json:"companies,omitempty"`
	EntryRoles   []string     `json:"entry_roles,omitempty"`
	Universities []string     `json:"universities,omitempty"`
}

// Recommendation is the resolver output. A missing reference row is a
// normal outcome reported through Matched, never an error.
type Recommendation struct {
	Variant Variant       `json:"variant"`
	Ranking []DomainBlend `json:"ranking"`
	Top     Domain        `json:"top"`
	Second  Domain        `json:"second"`
	Role    RoleType      `json:"role,omitempty"`
	Line    CareerLine    `json:"line,omitempty"`
	Key     ReferenceKey  `json:"key"`
	Matched bool          `json:"matched"`
	// Row is the resolved reference row; zero when Matched is false.
	Row ReferenceRow `json:"row"`
	// Fallback carries the generic guidance rendered on a miss.
	Fallback ReferenceRow `json:"fallback"`
}

// Guidance returns the matched row, or the fallback on a miss.
func (r Recommendation) Guidance() ReferenceRow {
	if r.Matched {
		return r.Row
	}
	return r.Fallback
}

// Result bundles everything computed for one report.
type Result struct {
	ID             string         `json:"id"`
	Catalog        string         `json:"catalog"`
	Student        Student        `json:"student"`
	Scores         CategoryScores `json:"scores"`
	AcademicRecord AcademicRecord `json:"academic_record"`
	Recommendation Recommendation `json:"recommendation"`
	GeneratedAt    time.Time      `json:"generated_at"`
}
