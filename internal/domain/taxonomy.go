package domain

import (
	"fmt"
	"strings"
)

// Domain is a top-level academic and career area derived by blending
// psychometric and academic signals.
type Domain int

// Domains in declaration order. Ranking falls back to this order for ties
// when a catalog declares no domain family.
const (
	DomainUnknown Domain = iota
	DomainSTEM
	DomainHumanities
	DomainCreative
	DomainBusiness
)

var domainNames = [...]string{
	DomainUnknown:    "Unknown",
	DomainSTEM:       "STEM",
	DomainHumanities: "Humanities",
	DomainCreative:   "Creative",
	DomainBusiness:   "Business",
}

// Domains returns every known domain in declaration order.
func Domains() []Domain {
	return []Domain{DomainSTEM, DomainHumanities, DomainCreative, DomainBusiness}
}

// String returns the display name of the domain.
func (d Domain) String() string {
	if d < 0 || int(d) >= len(domainNames) {
		return fmt.Sprintf("Domain(%d)", int(d))
	}
	return domainNames[d]
}

// Valid reports whether d is one of the declared domains.
func (d Domain) Valid() bool { return d >= DomainSTEM && d <= DomainBusiness }

// MarshalText implements encoding.TextMarshaler.
func (d Domain) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Domain) UnmarshalText(text []byte) error {
	if string(text) == DomainUnknown.String() {
		*d = DomainUnknown
		return nil
	}
	parsed, err := ParseDomain(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDomain resolves a domain name case-insensitively.
func ParseDomain(name string) (Domain, error) {
	for _, d := range Domains() {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return d, nil
		}
	}
	return DomainUnknown, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}

// RoleType is a work-style archetype.
type RoleType string

// Role types in declaration order.
const (
	RoleSpecialist      RoleType = "Specialist"
	RoleGeneralist      RoleType = "Generalist"
	RoleCreative        RoleType = "Creative"
	RoleEntrepreneurial RoleType = "Entrepreneurial"
	RoleAdministrative  RoleType = "Administrative"
	RoleTechnical       RoleType = "Technical"
	RoleHumanResources  RoleType = "Human Resources"
	RoleSalesMarketing  RoleType = "Sales/Marketing"
	RoleCustomerService RoleType = "Customer Service"
	RoleLeadership      RoleType = "Leadership"
	RoleOther           RoleType = "Other"
)

// RoleTypes returns all role types in declaration order.
func RoleTypes() []RoleType {
	return []RoleType{
		RoleSpecialist, RoleGeneralist, RoleCreative, RoleEntrepreneurial,
		RoleAdministrative, RoleTechnical, RoleHumanResources, RoleSalesMarketing,
		RoleCustomerService, RoleLeadership, RoleOther,
	}
}

// ParseRoleType resolves a role type name case-insensitively.
func ParseRoleType(name string) (RoleType, error) {
	for _, r := range RoleTypes() {
		if strings.EqualFold(strings.TrimSpace(name), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: role type %q", ErrUnknownCategory, name)
}

// CareerLine is a career-progression style.
type CareerLine string

// Career lines in declaration order.
const (
	LineLinear     CareerLine = "Linear"
	LineNonLinear  CareerLine = "Non-linear"
	LineDiagonal   CareerLine = "Diagonal"
	LineHorizontal CareerLine = "Horizontal"
)

// CareerLines returns all career lines in declaration order.
func CareerLines() []CareerLine {
	return []CareerLine{LineLinear, LineNonLinear, LineDiagonal, LineHorizontal}
}

// ParseCareerLine resolves a career line name case-insensitively.
func ParseCareerLine(name string) (CareerLine, error) {
	for _, l := range CareerLines() {
		if strings.EqualFold(strings.TrimSpace(name), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: career line %q", ErrUnknownCategory, name)
}

// Family names used by catalogs that score role types and career lines.
const (
	FamilyDomain     = "domain"
	FamilyRoleType   = "role_type"
	FamilyCareerLine = "career_line"
)

// DomainFamily returns the domain family in declaration order.
func DomainFamily() Family {
	members := make([]string, 0, len(Domains()))
	for _, d := range Domains() {
		members = append(members, d.String())
	}
	return Family{Name: FamilyDomain, Categories: members}
}

// CategoryCreativeArts carries the Creative domain in catalogs that also
// score the Creative role type.
const CategoryCreativeArts = "CreativeArts"

// RoleCareerDomainFamily returns the domain family for catalogs that score
// role types. The Creative domain reads CategoryCreativeArts, so role-type
// Creative points stay out of it; pair it with RoleCareerDomainCategories.
func RoleCareerDomainFamily() Family {
	f := DomainFamily()
	categories := RoleCareerDomainCategories()
	for i, d := range Domains() {
		if cat, ok := categories[d]; ok {
			f.Categories[i] = cat
		}
	}
	return f
}

// RoleCareerDomainCategories returns the domain categories matching
// RoleCareerDomainFamily.
func RoleCareerDomainCategories() map[Domain]string {
	return map[Domain]string{DomainCreative: CategoryCreativeArts}
}

// RoleTypeFamily returns the role type family with its members in
// declaration order.
func RoleTypeFamily() Family {
	members := make([]string, 0, len(RoleTypes()))
	for _, r := range RoleTypes() {
		members = append(members, string(r))
	}
	return Family{Name: FamilyRoleType, Categories: members}
}

// CareerLineFamily returns the career line family with its members in
// declaration order.
func CareerLineFamily() Family {
	members := make([]string, 0, len(CareerLines()))
	for _, l := range CareerLines() {
		members = append(members, string(l))
	}
	return Family{Name: FamilyCareerLine, Categories: members}
}

// Variant selects which reference table a recommendation is resolved
// against.
type Variant string

// Supported recommendation variants.
const (
	// VariantMajorMinor keys the reference table by the top two domains.
	VariantMajorMinor Variant = "major_minor"
	// VariantRoleCareer keys the reference table by the top domain plus the
	// dominant role type and career line.
	VariantRoleCareer Variant = "role_career"
)

// ParseVariant validates a variant name.
func ParseVariant(name string) (Variant, error) {
	switch v := Variant(strings.TrimSpace(name)); v {
	case VariantMajorMinor, VariantRoleCareer:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidConfiguration, name)
	}
}
