package testutils

import (
	"slices"
	"sync"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.ReferenceStore = (*MockReferenceStore)(nil)

// MockReferenceStore is an in-memory ports.ReferenceStore that counts
// lookups.
type MockReferenceStore struct {
	mu       sync.Mutex
	rows     map[domain.ReferenceKey]domain.ReferenceRow
	fallback map[domain.Variant]domain.ReferenceRow
	lookups  int
}

// NewMockReferenceStore returns a store with one row per variant:
// STEM+Humanities maps to Physics/Philosophy, and STEM/Technical/Linear to
// a "Software Engineer" career. Both variants have a fallback.
func NewMockReferenceStore() *MockReferenceStore {
	m := &MockReferenceStore{
		rows: make(map[domain.ReferenceKey]domain.ReferenceRow),
		fallback: map[domain.Variant]domain.ReferenceRow{
			domain.VariantMajorMinor: {
				Key:   domain.ReferenceKey{Variant: domain.VariantMajorMinor},
				Major: "General Studies",
				Minor: "Communication",
			},
			domain.VariantRoleCareer: {
				Key:     domain.ReferenceKey{Variant: domain.VariantRoleCareer},
				Message: "Keep exploring.",
			},
		},
	}
	m.Add(domain.ReferenceRow{
		Key:          domain.MajorMinorKey(domain.DomainSTEM, domain.DomainHumanities),
		Major:        "Physics",
		Minor:        "Philosophy",
		Careers:      []string{"Research Scientist"},
		Universities: []string{"MIT"},
	})
	m.Add(domain.ReferenceRow{
		Key:        domain.RoleCareerKey(domain.DomainSTEM, domain.RoleTechnical, domain.LineLinear),
		Message:    "Build deep technical skill.",
		Careers:    []string{"Software Engineer"},
		Companies:  []string{"Acme"},
		EntryRoles: []string{"Junior Developer"},
	})
	return m
}

// Add stores row under its key, replacing any previous row.
func (m *MockReferenceStore) Add(row domain.ReferenceRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.Key] = row
}

// Lookup implements ports.ReferenceStore.
func (m *MockReferenceStore) Lookup(key domain.ReferenceKey) (domain.ReferenceRow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	row, ok := m.rows[key]
	row.Careers = slices.Clone(row.Careers)
	return row, ok
}

// Fallback implements ports.ReferenceStore.
func (m *MockReferenceStore) Fallback(variant domain.Variant) domain.ReferenceRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallback[variant]
}

// Lookups returns how many lookups were made.
func (m *MockReferenceStore) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}
