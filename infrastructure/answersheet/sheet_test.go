package answersheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/testutils"
)

const yamlSheet = `
student:
  name: Asha
  contact: asha@example.com
answers:
  1: A
  2: b
  3: I like Creative
  4: "  i like   business "
academics:
  - subject: Math
    scores: [90, "70"]
  - subject: English
    scores: ["", null, 85%]
`

const jsonSheet = `{
  "catalog": "domains",
  "student": {"name": "Ravi", "audience": "parent"},
  "answers": {"1": "A", "2": "A", "3": "B", "4": "D"},
  "academics": [{"subject": "Science", "scores": [88.5]}]
}`

func TestParse_YAML(t *testing.T) {
	sheet, err := Parse(strings.NewReader(yamlSheet), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Asha", sheet.Student.Name)
	assert.Equal(t, map[string]string{"1": "A", "2": "b", "3": "I like Creative", "4": "  i like   business "}, sheet.Answers)
	require.Len(t, sheet.Academics, 2)

	resolved, err := sheet.Resolve(testutils.DomainCatalog(), domain.DuplicateMerge)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "A", 2: "B", 3: "C", 4: "D"}, resolved.Answers)
	assert.Equal(t, domain.AudienceStudent, resolved.Student.Audience)

	math, ok := resolved.Academics.Subject("math")
	require.True(t, ok)
	assert.Equal(t, []float64{90, 70}, math.Scores)
	english, ok := resolved.Academics.Subject("English")
	require.True(t, ok)
	assert.Equal(t, []float64{85}, english.Scores, "blank and null marks are missing")
}

func TestParse_JSON(t *testing.T) {
	sheet, err := Parse(strings.NewReader(jsonSheet), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "domains", sheet.Catalog)

	resolved, err := sheet.Resolve(testutils.DomainCatalog(), domain.DuplicateReject)
	require.NoError(t, err)
	assert.Equal(t, domain.AudienceParent, resolved.Student.Audience)
	assert.Equal(t, domain.DuplicateReject, resolved.Academics.Policy)
	assert.InDelta(t, 88.5, resolved.Academics.Subjects[0].Average(), 1e-9)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"not yaml", FormatYAML, "student: [unclosed"},
		{"not json", FormatJSON, "{"},
		{"missing student", FormatJSON, `{"answers": {"1": "A"}}`},
		{"empty name", FormatJSON, `{"student": {"name": ""}, "answers": {"1": "A"}}`},
		{"unknown audience", FormatJSON, `{"student": {"name": "x", "audience": "counsellor"}, "answers": {"1": "A"}}`},
		{"no answers", FormatJSON, `{"student": {"name": "x"}, "answers": {}}`},
		{"question id zero", FormatJSON, `{"student": {"name": "x"}, "answers": {"0": "A"}}`},
		{"non numeric question id", FormatYAML, "student: {name: x}\nanswers: {first: A}"},
		{"unknown top-level field", FormatJSON, `{"student": {"name": "x"}, "answers": {"1": "A"}, "extra": 1}`},
		{"score is an object", FormatJSON, `{"student": {"name": "x"}, "answers": {"1": "A"}, "academics": [{"subject": "Math", "scores": [{}]}]}`},
		{"unsupported format", Format("toml"), `student = "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSheet)
		})
	}
}

func TestSheet_ResolveErrors(t *testing.T) {
	cat := testutils.DomainCatalog()

	tests := []struct {
		name    string
		sheet   Sheet
		wantErr error
	}{
		{
			name:    "unknown question",
			sheet:   Sheet{Answers: map[string]string{"9": "A"}},
			wantErr: domain.ErrInvalidAnswer,
		},
		{
			name:    "unknown option",
			sheet:   Sheet{Answers: map[string]string{"1": "E"}},
			wantErr: domain.ErrInvalidAnswer,
		},
		{
			name:    "non numeric score",
			sheet:   Sheet{Answers: map[string]string{"1": "A"}, Academics: []SubjectEntry{{Subject: "Math", Scores: []any{"ninety"}}}},
			wantErr: domain.ErrNonNumericScore,
		},
		{
			name:    "score out of range",
			sheet:   Sheet{Answers: map[string]string{"1": "A"}, Academics: []SubjectEntry{{Subject: "Math", Scores: []any{101.0}}}},
			wantErr: domain.ErrScoreOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sheet.Resolve(cat, domain.DuplicateMerge)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildRecord_DuplicatePolicy(t *testing.T) {
	entries := []SubjectEntry{
		{Subject: "Math", Scores: []any{90.0}},
		{Subject: " math ", Scores: []any{70.0}},
	}

	merged, err := BuildRecord(entries, domain.DuplicateMerge)
	require.NoError(t, err)
	require.Equal(t, 1, merged.Len())
	assert.InDelta(t, 80.0, merged.Subjects[0].Average(), 1e-9)

	_, err = BuildRecord(entries, domain.DuplicateReject)
	assert.ErrorIs(t, err, domain.ErrDuplicateSubject)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "sheet.JSON")
	yamlPath := filepath.Join(dir, "sheet.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonSheet), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlSheet), 0o600))

	sheet, err := ParseFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", sheet.Student.Name)

	sheet, err = ParseFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "Asha", sheet.Student.Name)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		present bool
		wantErr error
	}{
		{"90", 90, true, nil},
		{" 72.5 ", 72.5, true, nil},
		{"85%", 85, true, nil},
		{"0", 0, true, nil},
		{"100", 100, true, nil},
		{"", 0, false, nil},
		{"   ", 0, false, nil},
		{"abc", 0, false, domain.ErrNonNumericScore},
		{"NaN", 0, false, domain.ErrNonNumericScore},
		{"+Inf", 0, false, domain.ErrNonNumericScore},
		{"-1", 0, false, domain.ErrScoreOutOfRange},
		{"100.01", 0, false, domain.ErrScoreOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, present, err := ParseScore(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.want, got)
		})
	}
}
