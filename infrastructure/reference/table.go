// Package reference loads the read-only reference tables that map ranked
// profiles to guidance text, and serves them through ports.ReferenceStore.
package reference

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.ReferenceStore = (*Table)(nil)

// ErrMalformedTable is returned when a reference file fails to decode or
// validate.
var ErrMalformedTable = errors.New("malformed reference table")

//go:embed data/reference.yaml
var defaultTable []byte

// fileConfig is the on-disk layout of a reference file.
type fileConfig struct {
	Version    string            `yaml:"version" validate:"required"`
	MajorMinor majorMinorSection `yaml:"major_minor"`
	RoleCareer roleCareerSection `yaml:"role_career"`
}

type guidanceConfig struct {
	Major        string   `yaml:"major,omitempty"`
	Minor        string   `yaml:"minor,omitempty"`
	Message      string   `yaml:"message,omitempty" validate:"max=2000"`
	Careers      []string `yaml:"careers,omitempty" validate:"max=20,dive,required"`
	Companies    []string `yaml:"companies,omitempty" validate:"max=20,dive,required"`
	EntryRoles   []string `yaml:"entry_roles,omitempty" validate:"max=20,dive,required"`
	Universities []string `yaml:"universities,omitempty" validate:"max=20,dive,required"`
}

type majorMinorSection struct {
	Fallback guidanceConfig  `yaml:"fallback"`
	Rows     []majorMinorRow `yaml:"rows" validate:"dive"`
}

type majorMinorRow struct {
	Primary        string `yaml:"primary" validate:"required"`
	Secondary      string `yaml:"secondary" validate:"required,nefield=Primary"`
	guidanceConfig `yaml:",inline"`
}

type roleCareerSection struct {
	Fallback guidanceConfig  `yaml:"fallback"`
	Rows     []roleCareerRow `yaml:"rows" validate:"dive"`
}

type roleCareerRow struct {
	Domain         string `yaml:"domain" validate:"required"`
	Role           string `yaml:"role" validate:"required"`
	Line           string `yaml:"line" validate:"required"`
	guidanceConfig `yaml:",inline"`
}

// Table is an immutable, validated reference table. It is safe for
// concurrent use.
type Table struct {
	version  string
	rows     map[domain.ReferenceKey]domain.ReferenceRow
	keys     []domain.ReferenceKey
	fallback map[domain.Variant]domain.ReferenceRow
}

// Default returns the table embedded in the binary.
func Default() (*Table, error) {
	return Load(bytes.NewReader(defaultTable), "builtin")
}

// LoadFile reads a reference table from a YAML file.
func LoadFile(path string) (*Table, error) {
	clean := filepath.Clean(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(clean))
}

// Load decodes and validates a reference table. Unknown fields, unknown
// domain, role or career line names and duplicate keys are rejected.
func Load(r io.Reader, source string) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg fileConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w %s: decode: %v", ErrMalformedTable, source, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformedTable, source, err)
	}

	t := &Table{
		version: cfg.Version,
		rows:    make(map[domain.ReferenceKey]domain.ReferenceRow),
		fallback: map[domain.Variant]domain.ReferenceRow{
			domain.VariantMajorMinor: cfg.MajorMinor.Fallback.row(domain.ReferenceKey{Variant: domain.VariantMajorMinor}),
			domain.VariantRoleCareer: cfg.RoleCareer.Fallback.row(domain.ReferenceKey{Variant: domain.VariantRoleCareer}),
		},
	}

	for i, row := range cfg.MajorMinor.Rows {
		primary, err := domain.ParseDomain(row.Primary)
		if err != nil {
			return nil, t.rowErr(source, "major_minor", i, err)
		}
		secondary, err := domain.ParseDomain(row.Secondary)
		if err != nil {
			return nil, t.rowErr(source, "major_minor", i, err)
		}
		if row.Major == "" {
			return nil, t.rowErr(source, "major_minor", i, fmt.Errorf("%w: major", domain.ErrEmptyValue))
		}
		if err := t.add(row.row(domain.MajorMinorKey(primary, secondary))); err != nil {
			return nil, t.rowErr(source, "major_minor", i, err)
		}
	}

	for i, row := range cfg.RoleCareer.Rows {
		d, err := domain.ParseDomain(row.Domain)
		if err != nil {
			return nil, t.rowErr(source, "role_career", i, err)
		}
		role, err := domain.ParseRoleType(row.Role)
		if err != nil {
			return nil, t.rowErr(source, "role_career", i, err)
		}
		line, err := domain.ParseCareerLine(row.Line)
		if err != nil {
			return nil, t.rowErr(source, "role_career", i, err)
		}
		if err := t.add(row.row(domain.RoleCareerKey(d, role, line))); err != nil {
			return nil, t.rowErr(source, "role_career", i, err)
		}
	}

	return t, nil
}

func (t *Table) add(row domain.ReferenceRow) error {
	if _, dup := t.rows[row.Key]; dup {
		return fmt.Errorf("duplicate key %s", row.Key)
	}
	t.rows[row.Key] = row
	t.keys = append(t.keys, row.Key)
	return nil
}

func (t *Table) rowErr(source, section string, i int, err error) error {
	return fmt.Errorf("%w %s: %s row %d: %w", ErrMalformedTable, source, section, i+1, err)
}

func (g guidanceConfig) row(key domain.ReferenceKey) domain.ReferenceRow {
	return domain.ReferenceRow{
		Key:          key,
		Major:        g.Major,
		Minor:        g.Minor,
		Message:      g.Message,
		Careers:      slices.Clone(g.Careers),
		Companies:    slices.Clone(g.Companies),
		EntryRoles:   slices.Clone(g.EntryRoles),
		Universities: slices.Clone(g.Universities),
	}
}

// Lookup returns the row stored under key. Rows are matched exactly, so
// the order of a major/minor pair matters.
func (t *Table) Lookup(key domain.ReferenceKey) (domain.ReferenceRow, bool) {
	row, ok := t.rows[key]
	if !ok {
		return domain.ReferenceRow{}, false
	}
	return cloneRow(row), true
}

// Fallback returns the generic guidance of a variant.
func (t *Table) Fallback(variant domain.Variant) domain.ReferenceRow {
	return cloneRow(t.fallback[variant])
}

// Keys returns the keys of one variant in file order.
func (t *Table) Keys(variant domain.Variant) []domain.ReferenceKey {
	var out []domain.ReferenceKey
	for _, k := range t.keys {
		if k.Variant == variant {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of rows across both variants.
func (t *Table) Len() int { return len(t.rows) }

// Version returns the table's declared version.
func (t *Table) Version() string { return t.version }

func cloneRow(r domain.ReferenceRow) domain.ReferenceRow {
	r.Careers = slices.Clone(r.Careers)
	r.Companies = slices.Clone(r.Companies)
	r.EntryRoles = slices.Clone(r.EntryRoles)
	r.Universities = slices.Clone(r.Universities)
	return r
}
