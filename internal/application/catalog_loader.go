package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-compass/infrastructure/catalog"
	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// CatalogLoader provides YAML parsing, validation, and caching for question
// catalogs, turning declarative YAML into immutable domain catalogs.
// Use CatalogLoader to load catalogs from files, readers or the built-in
// set while benefiting from SHA256-based caching.
type CatalogLoader struct {
	// validator performs struct validation including the semver and
	// optionid tags.
	validator *validator.Validate
	// cache stores built catalogs indexed by the SHA256 of their normalized
	// form.
	// WARNING: Cached catalogs are shared and MUST NOT be mutated.
	cache   map[string]*domain.Catalog
	cacheMu sync.RWMutex
	// sf prevents duplicate validation when several goroutines load the
	// same catalog at once.
	sf     singleflight.Group
	logger *zap.Logger
}

// NewCatalogLoader creates a loader with the custom validators registered
// and an empty cache.
// NewCatalogLoader returns an error if validator registration fails.
func NewCatalogLoader(logger *zap.Logger) (*CatalogLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogLoader{
		validator: v,
		cache:     make(map[string]*domain.Catalog),
		logger:    logger.With(zap.String("component", "catalog_loader")),
	}, nil
}

// load is the common implementation behind every Load method. Decoding and
// conversion run on each call; validation and caching are keyed by the
// catalog's content hash and de-duplicated with singleflight.
// WARNING: The returned catalog is a cached instance. Callers MUST NOT
// mutate it.
func (cl *CatalogLoader) load(ctx context.Context, data []byte, source string) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, domain.NewCatalogError(source, "yaml", err)
	}
	if err := cl.validator.Struct(config); err != nil {
		return nil, domain.NewCatalogError(source, "schema", err)
	}

	cat, err := cl.buildCatalog(config, source)
	if err != nil {
		return nil, err
	}

	// Hash the built catalog so that equivalent spellings of the same
	// weights share one cache entry.
	hash, err := catalogHash(cat)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, shared := cl.sf.Do(hash, func() (any, error) {
		if cached, ok := cl.getCached(hash); ok {
			return cached, nil
		}
		if err := cat.Validate(); err != nil {
			return nil, err
		}
		cl.putCached(hash, cat)
		cl.logger.Info("catalog loaded",
			zap.String("catalog", cat.Name),
			zap.String("version", cat.Version),
			zap.Int("questions", len(cat.Questions)),
			zap.Int("categories", len(cat.Categories())),
			zap.String("hash", hash[:12]))
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		cl.logger.Debug("catalog load shared", zap.String("catalog", cat.Name))
	}
	return v.(*domain.Catalog), nil
}

// LoadFromFile loads a YAML catalog from path.
func (cl *CatalogLoader) LoadFromFile(ctx context.Context, path string) (*domain.Catalog, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return cl.load(ctx, data, filepath.Base(cleanPath))
}

// LoadFromReader loads a YAML catalog from r. source names the catalog in
// error messages.
func (cl *CatalogLoader) LoadFromReader(ctx context.Context, r io.Reader, source string) (*domain.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return cl.load(ctx, data, source)
}

// LoadBuiltin loads one of the catalogs embedded in the binary.
func (cl *CatalogLoader) LoadBuiltin(ctx context.Context, name string) (*domain.Catalog, error) {
	data, err := catalog.Builtin(name)
	if err != nil {
		return nil, err
	}
	return cl.load(ctx, data, name)
}

// Open resolves ref to a catalog: an empty ref or a built-in name loads
// the embedded catalog, a .csv path goes through the CSV source and any
// other path is read as YAML. defaultName is used for an empty ref.
func (cl *CatalogLoader) Open(ctx context.Context, ref, defaultName string) (*domain.Catalog, error) {
	switch {
	case ref == "":
		return cl.LoadBuiltin(ctx, defaultName)
	case catalog.IsBuiltin(ref):
		return cl.LoadBuiltin(ctx, ref)
	case strings.EqualFold(filepath.Ext(ref), ".csv"):
		return catalog.NewCSVSource(ref, catalog.WithLogger(cl.logger)).Load(ctx)
	default:
		return cl.LoadFromFile(ctx, ref)
	}
}

// Source adapts a file path or built-in name to ports.CatalogSource.
func (cl *CatalogLoader) Source(ref, defaultName string) ports.CatalogSource {
	return catalogSourceFunc(func(ctx context.Context) (*domain.Catalog, error) {
		return cl.Open(ctx, ref, defaultName)
	})
}

type catalogSourceFunc func(ctx context.Context) (*domain.Catalog, error)

func (f catalogSourceFunc) Load(ctx context.Context) (*domain.Catalog, error) { return f(ctx) }

// parseYAML decodes data in strict mode so that misspelled keys fail
// instead of being silently ignored.
func (cl *CatalogLoader) parseYAML(data []byte) (*CatalogConfig, error) {
	var config CatalogConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// buildCatalog converts a schema-valid config into a domain catalog,
// parsing weight expressions once. Tags and weights on the same option
// are rejected.
func (cl *CatalogLoader) buildCatalog(config *CatalogConfig, source string) (*domain.Catalog, error) {
	cat := &domain.Catalog{
		Name:        config.Metadata.Name,
		Version:     config.Version,
		Description: config.Metadata.Description,
	}
	for _, f := range config.Families {
		cat.Families = append(cat.Families, domain.Family{
			Name:       f.Name,
			Categories: append([]string(nil), f.Categories...),
		})
	}
	if len(config.DomainCategories) > 0 {
		cat.DomainCategories = make(map[domain.Domain]string, len(config.DomainCategories))
		for name, category := range config.DomainCategories {
			d, err := domain.ParseDomain(name)
			if err != nil {
				return nil, domain.NewCatalogError(source, "domain_categories", err)
			}
			cat.DomainCategories[d] = category
		}
	}

	for _, qc := range config.Questions {
		q := domain.Question{ID: qc.ID, Theme: qc.Theme, Prompt: qc.Prompt}
		for _, oc := range qc.Options {
			loc := fmt.Sprintf("question %d option %s", qc.ID, oc.ID)
			weights, err := optionWeights(oc)
			if err != nil {
				return nil, domain.NewCatalogError(source, loc, err)
			}
			q.Options = append(q.Options, domain.Option{ID: oc.ID, Label: oc.Label, Weights: weights})
		}
		cat.Questions = append(cat.Questions, q)
	}
	return cat, nil
}

// optionWeights resolves an option's tags or weights to structured
// weights.
func optionWeights(oc OptionConfig) ([]domain.Weight, error) {
	hasWeights := oc.Weights.Kind != 0
	if len(oc.Tags) > 0 && hasWeights {
		return nil, fmt.Errorf("option declares both tags and weights")
	}
	if len(oc.Tags) > 0 {
		weights := make([]domain.Weight, 0, len(oc.Tags))
		seen := make(map[string]struct{}, len(oc.Tags))
		for _, tag := range oc.Tags {
			if _, dup := seen[tag]; dup {
				return nil, fmt.Errorf("tag %q listed twice", tag)
			}
			seen[tag] = struct{}{}
			weights = append(weights, domain.Weight{Category: tag, Points: 1})
		}
		return weights, nil
	}
	if !hasWeights {
		return nil, nil
	}

	switch oc.Weights.Kind {
	case yaml.ScalarNode:
		return catalog.ParseWeights(oc.Weights.Value)
	case yaml.MappingNode:
		weights := make([]domain.Weight, 0, len(oc.Weights.Content)/2)
		seen := make(map[string]struct{}, len(oc.Weights.Content)/2)
		for i := 0; i+1 < len(oc.Weights.Content); i += 2 {
			key, val := oc.Weights.Content[i], oc.Weights.Content[i+1]
			name := strings.TrimSpace(key.Value)
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: category %q listed twice", catalog.ErrWeightSyntax, name)
			}
			seen[name] = struct{}{}
			var points int
			if err := val.Decode(&points); err != nil {
				return nil, fmt.Errorf("%w: weight for %s: %v", catalog.ErrWeightSyntax, name, err)
			}
			weights = append(weights, domain.Weight{Category: name, Points: points})
		}
		return weights, nil
	default:
		return nil, fmt.Errorf("%w: weights must be a string or a mapping", catalog.ErrWeightSyntax)
	}
}

// catalogHash computes the SHA256 of the catalog's YAML encoding with a
// fixed indent.
func catalogHash(cat *domain.Catalog) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cat); err != nil {
		return "", fmt.Errorf("failed to encode catalog for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func (cl *CatalogLoader) getCached(hash string) (*domain.Catalog, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()
	cat, ok := cl.cache[hash]
	return cat, ok
}

func (cl *CatalogLoader) putCached(hash string, cat *domain.Catalog) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()
	cl.cache[hash] = cat
}

// ClearCache drops every cached catalog so the next load rebuilds it.
func (cl *CatalogLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()
	cl.cache = make(map[string]*domain.Catalog)
}

// CacheSize returns the number of cached catalogs.
func (cl *CatalogLoader) CacheSize() int {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()
	return len(cl.cache)
}
