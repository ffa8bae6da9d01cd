package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahrav/go-compass/infrastructure/catalog"
	"github.com/ahrav/go-compass/internal/domain"
)

const minimalCatalog = `version: "1.2.0"
metadata:
  name: mini
families:
  - name: role_type
    categories: [Specialist, Generalist]
  - name: career_line
    categories: [Linear, Horizontal]
questions:
  - id: 1
    theme: Style
    prompt: "Pick one"
    options:
      - id: A
        label: Deep
        weights: "Specialist=3, Linear=1"
      - id: B
        label: Broad
        weights: {Generalist: 2, Horizontal: 2}
      - id: C
        label: Either
  - id: 2
    prompt: "Pick another"
    options:
      - id: A
        label: Tagged
        tags: [Specialist, Linear]
      - id: B
        label: Dict
        weights: "{'Generalist': 1}"
`

func newTestLoader(t *testing.T) *CatalogLoader {
	t.Helper()
	loader, err := NewCatalogLoader(zaptest.NewLogger(t))
	require.NoError(t, err)
	return loader
}

func TestCatalogLoader_LoadFromReader(t *testing.T) {
	loader := newTestLoader(t)

	cat, err := loader.LoadFromReader(context.Background(), strings.NewReader(minimalCatalog), "mini.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mini", cat.Name)
	assert.Equal(t, "1.2.0", cat.Version)
	assert.Equal(t, []string{"Specialist", "Generalist", "Linear", "Horizontal"}, cat.Categories())
	assert.Equal(t, []string{"Style", domain.DefaultTheme}, cat.Themes())

	q1 := cat.Questions[0]
	assert.Equal(t, []domain.Weight{{Category: "Specialist", Points: 3}, {Category: "Linear", Points: 1}}, q1.Options[0].Weights)
	assert.Equal(t, []domain.Weight{{Category: "Generalist", Points: 2}, {Category: "Horizontal", Points: 2}}, q1.Options[1].Weights,
		"mapping weights keep their authored order")
	assert.True(t, q1.Options[2].Neutral())

	q2 := cat.Questions[1]
	assert.Equal(t, []domain.Weight{{Category: "Specialist", Points: 1}, {Category: "Linear", Points: 1}}, q2.Options[0].Weights,
		"tags are worth one point each")
	assert.Equal(t, []domain.Weight{{Category: "Generalist", Points: 1}}, q2.Options[1].Weights)
}

func TestCatalogLoader_Builtins(t *testing.T) {
	loader := newTestLoader(t)

	tests := []struct {
		name      string
		questions int
		themes    int
		family    string
	}{
		{catalog.CareerGuidance, 30, 4, "style"},
		{catalog.Psychometric, 30, 6, domain.FamilyRoleType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := loader.LoadBuiltin(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Len(t, cat.Questions, tt.questions)
			assert.Len(t, cat.Themes(), tt.themes)
			_, ok := cat.Family(tt.family)
			assert.True(t, ok)
			require.NoError(t, cat.Validate())
		})
	}

	_, err := loader.LoadBuiltin(context.Background(), "nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownBuiltin)
}

func TestCatalogLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantErr  string
		location string
	}{
		{
			name:     "unknown field",
			yaml:     strings.Replace(minimalCatalog, "  name: mini", "  name: mini\n  author: me", 1),
			wantErr:  "author",
			location: "yaml",
		},
		{
			name:     "bad version",
			yaml:     strings.Replace(minimalCatalog, `"1.2.0"`, `"v1"`, 1),
			wantErr:  "semver",
			location: "schema",
		},
		{
			name:     "bad option id",
			yaml:     strings.Replace(minimalCatalog, "- id: C", "- id: C!", 1),
			wantErr:  "optionid",
			location: "schema",
		},
		{
			name:     "unparsable weights",
			yaml:     strings.Replace(minimalCatalog, `"Specialist=3, Linear=1"`, `"Specialist=three"`, 1),
			wantErr:  "weight",
			location: "question 1 option A",
		},
		{
			name:     "tags and weights together",
			yaml:     strings.Replace(minimalCatalog, "tags: [Specialist, Linear]", "tags: [Specialist]\n        weights: \"Linear=1\"", 1),
			wantErr:  "both tags and weights",
			location: "question 2 option A",
		},
		{
			name:     "weights as a list",
			yaml:     strings.Replace(minimalCatalog, "{Generalist: 2, Horizontal: 2}", "[1, 2]", 1),
			wantErr:  "string or a mapping",
			location: "question 1 option B",
		},
		{
			name:     "category outside families",
			yaml:     strings.Replace(minimalCatalog, `"{'Generalist': 1}"`, `"{'Wizard': 1}"`, 1),
			wantErr:  "unknown category",
			location: "question 2 option B",
		},
		{
			name:     "duplicate question id",
			yaml:     strings.Replace(minimalCatalog, "- id: 2", "- id: 1", 1),
			wantErr:  "duplicate question id",
			location: "question 1",
		},
		{
			name:     "single option",
			yaml:     minimalCatalogWithOneOption(),
			wantErr:  "min",
			location: "schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)
			_, err := loader.LoadFromReader(context.Background(), strings.NewReader(tt.yaml), "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedCatalog)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), tt.location)
			assert.Zero(t, loader.CacheSize())
		})
	}
}

func minimalCatalogWithOneOption() string {
	return strings.Replace(minimalCatalog, `      - id: B
        label: Dict
        weights: "{'Generalist': 1}"
`, "", 1)
}

func TestCatalogLoader_Cache(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	first, err := loader.LoadFromReader(ctx, strings.NewReader(minimalCatalog), "a.yaml")
	require.NoError(t, err)

	// Same weights spelled as a mapping share the cache entry.
	respelled := strings.Replace(minimalCatalog, `"Specialist=3, Linear=1"`, `{Specialist: 3, Linear: 1}`, 1)
	second, err := loader.LoadFromReader(ctx, strings.NewReader(respelled), "b.yaml")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.CacheSize())

	loader.ClearCache()
	assert.Zero(t, loader.CacheSize())
	third, err := loader.LoadFromReader(ctx, strings.NewReader(minimalCatalog), "a.yaml")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestCatalogLoader_ConcurrentLoads(t *testing.T) {
	loader := newTestLoader(t)

	var wg sync.WaitGroup
	results := make([]*domain.Catalog, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cat, err := loader.LoadBuiltin(context.Background(), catalog.Psychometric)
			assert.NoError(t, err)
			results[i] = cat
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, loader.CacheSize())
	for _, cat := range results[1:] {
		assert.Same(t, results[0], cat)
	}
}

func TestCatalogLoader_Open(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "mini.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(minimalCatalog), 0o600))

	csvPath := filepath.Join(dir, "tabular.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Question,Option A,Option B,Weights A,Weights B\nPick,Deep,Broad,Specialist=1,Generalist=1\n"), 0o600))

	tests := []struct {
		name     string
		ref      string
		wantName string
	}{
		{"empty ref uses the default", "", catalog.CareerGuidance},
		{"builtin name", catalog.Psychometric, catalog.Psychometric},
		{"yaml file", yamlPath, "mini"},
		{"csv file", csvPath, "tabular"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := loader.Source(tt.ref, catalog.CareerGuidance).Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cat.Name)
		})
	}

	_, err := loader.Open(ctx, filepath.Join(dir, "missing.yaml"), catalog.CareerGuidance)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalogLoader_CancelledContext(t *testing.T) {
	loader := newTestLoader(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.LoadFromReader(ctx, strings.NewReader(minimalCatalog), "mini.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}
