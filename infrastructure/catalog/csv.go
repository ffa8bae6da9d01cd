package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.CatalogSource = (*CSVSource)(nil)

// Option letters a CSV catalog may carry, in column order.
var csvOptionIDs = []string{"A", "B", "C", "D"}

// CSVVersion is the version assigned to catalogs read from CSV, which has
// no place to declare one.
const CSVVersion = "1.0.0"

// CSVSource reads a tabular catalog with the columns
//
//	Theme, Question, Option A..D, Weights A..D
//
// Header names are matched case-insensitively and Theme is optional. Each
// data row is one question whose id is its 1-based row number. An option
// with an empty label is omitted; at least two options must remain.
type CSVSource struct {
	name             string
	open             func() (io.ReadCloser, error)
	families         []domain.Family
	domainCategories map[domain.Domain]string
	logger           *zap.Logger
}

// CSVOption configures a CSVSource.
type CSVOption func(*CSVSource)

// WithFamilies replaces the default families (domains, role types and
// career lines) and drops the default domain categories.
func WithFamilies(families ...domain.Family) CSVOption {
	return func(s *CSVSource) {
		s.families = families
		s.domainCategories = nil
	}
}

// WithDomainCategories sets the categories that carry the domains. Apply it
// after WithFamilies.
func WithDomainCategories(categories map[domain.Domain]string) CSVOption {
	return func(s *CSVSource) { s.domainCategories = categories }
}

// WithLogger sets the logger used to report skipped options.
func WithLogger(logger *zap.Logger) CSVOption {
	return func(s *CSVSource) { s.logger = logger }
}

// NewCSVSource reads the catalog at path. The catalog is named after the
// file without its extension.
func NewCSVSource(path string, opts ...CSVOption) *CSVSource {
	clean := filepath.Clean(path)
	name := strings.TrimSuffix(filepath.Base(clean), filepath.Ext(clean))
	return newCSVSource(name, func() (io.ReadCloser, error) { return os.Open(clean) }, opts)
}

// NewCSVReaderSource reads the catalog from r exactly once.
func NewCSVReaderSource(name string, r io.Reader, opts ...CSVOption) *CSVSource {
	return newCSVSource(name, func() (io.ReadCloser, error) { return io.NopCloser(r), nil }, opts)
}

func newCSVSource(name string, open func() (io.ReadCloser, error), opts []CSVOption) *CSVSource {
	s := &CSVSource{
		name:             name,
		open:             open,
		families:         []domain.Family{domain.RoleCareerDomainFamily(), domain.RoleTypeFamily(), domain.CareerLineFamily()},
		domainCategories: domain.RoleCareerDomainCategories(),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses and validates the CSV catalog. Any structural problem is
// reported as a *domain.CatalogError naming the row and column.
func (s *CSVSource) Load(ctx context.Context) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open csv catalog %s: %w", s.name, err)
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewCatalogError(s.name, "header", fmt.Errorf("%w: empty file", domain.ErrEmptyValue))
		}
		return nil, domain.NewCatalogError(s.name, "header", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"question", "option a", "weights a", "option b", "weights b"} {
		if _, ok := idx[col]; !ok {
			return nil, domain.NewCatalogError(s.name, "header", fmt.Errorf("missing column %q", col))
		}
	}

	cat := &domain.Catalog{
		Name:             s.name,
		Version:          CSVVersion,
		Families:         s.families,
		DomainCategories: s.domainCategories,
	}

	row := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, domain.NewCatalogError(s.name, fmt.Sprintf("row %d", row), err)
		}
		if blank(rec) {
			row--
			continue
		}

		q, err := s.question(row, rec, idx)
		if err != nil {
			return nil, err
		}
		cat.Questions = append(cat.Questions, q)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	s.logger.Debug("csv catalog loaded",
		zap.String("catalog", cat.Name),
		zap.Int("questions", len(cat.Questions)),
		zap.Int("themes", len(cat.Themes())))
	return cat, nil
}

func (s *CSVSource) question(row int, rec []string, idx map[string]int) (domain.Question, error) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	q := domain.Question{
		ID:     row,
		Theme:  cell("theme"),
		Prompt: cell("question"),
	}
	for _, id := range csvOptionIDs {
		label := cell("option " + strings.ToLower(id))
		expr := cell("weights " + strings.ToLower(id))
		if label == "" {
			if expr != "" {
				s.logger.Warn("weights without option label ignored",
					zap.String("catalog", s.name), zap.Int("row", row), zap.String("option", id))
			}
			continue
		}
		weights, err := ParseWeights(expr)
		if err != nil {
			return q, domain.NewCatalogError(s.name, fmt.Sprintf("row %d column Weights %s", row, id), err)
		}
		q.Options = append(q.Options, domain.Option{ID: id, Label: label, Weights: weights})
	}
	return q, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
