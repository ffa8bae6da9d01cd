package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
	"github.com/ahrav/go-compass/internal/testutils"
)

func majorMinorResult(matched bool) domain.Result {
	scores := domain.NewCategoryScores(domain.DomainFamily().Categories)
	scores.Add("STEM", 3)
	scores.Add("Humanities", 1)

	rec := domain.Recommendation{
		Variant: domain.VariantMajorMinor,
		Ranking: []domain.DomainBlend{
			{Domain: domain.DomainSTEM, Psychometric: 3, Academic: 80, Blended: 10},
			{Domain: domain.DomainHumanities, Psychometric: 1, Academic: 0, Blended: 2},
			{Domain: domain.DomainCreative},
			{Domain: domain.DomainBusiness},
		},
		Top:     domain.DomainSTEM,
		Second:  domain.DomainHumanities,
		Key:     domain.MajorMinorKey(domain.DomainSTEM, domain.DomainHumanities),
		Matched: matched,
		Fallback: domain.ReferenceRow{
			Major:        "General Studies",
			Minor:        "Communication",
			Message:      "Keep your options open.",
			Universities: []string{"York University"},
			Careers:      []string{"Content Creator"},
		},
	}
	if matched {
		rec.Row = domain.ReferenceRow{
			Major:        "Physics",
			Minor:        "Philosophy",
			Message:      "You like big questions.",
			Universities: []string{"MIT", "ETH Zurich"},
			Careers:      []string{"Research Scientist"},
		}
	}

	return domain.Result{
		ID:             "result-1",
		Catalog:        "domains",
		Student:        domain.Student{Name: "Asha Rao", Contact: "asha@example.com"},
		Scores:         scores,
		AcademicRecord: testutils.Record("Math", 90.0, "Math", 70.0),
		Recommendation: rec,
		GeneratedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func roleCareerResult() domain.Result {
	cat := testutils.RoleCareerCatalog()
	scores := domain.NewCategoryScores(cat.Categories())
	scores.Add("Technical", 9)
	scores.Add("Linear", 6)
	scores.Add("Diagonal", 1)

	return domain.Result{
		ID:      "result-2",
		Catalog: cat.Name,
		Student: domain.Student{Name: "Ravi"},
		Scores:  scores,
		Recommendation: domain.Recommendation{
			Variant: domain.VariantRoleCareer,
			Ranking: []domain.DomainBlend{{Domain: domain.DomainSTEM, Blended: 12}, {Domain: domain.DomainHumanities}},
			Top:     domain.DomainSTEM,
			Second:  domain.DomainHumanities,
			Role:    domain.RoleTechnical,
			Line:    domain.LineLinear,
			Key:     domain.RoleCareerKey(domain.DomainSTEM, domain.RoleTechnical, domain.LineLinear),
			Matched: true,
			Row: domain.ReferenceRow{
				Message:    "Build deep technical skill.",
				Careers:    []string{"Software Engineer"},
				Companies:  []string{"Acme", "Globex"},
				EntryRoles: []string{"Junior Developer"},
			},
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func renderText(t *testing.T, result domain.Result) string {
	t.Helper()
	r, err := NewTextRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, result))
	return buf.String()
}

func TestTextRenderer_MajorMinor(t *testing.T) {
	out := renderText(t, majorMinorResult(true))

	for _, want := range []string{
		"CAREER GUIDANCE REPORT",
		"Student:   Asha Rao (asha@example.com)",
		"Report ID: result-1",
		"  - STEM: 3 points",
		"  - Humanities: 1 point\n",
		"  1. STEM: 10 (answers 3, academic boost 80)",
		"  - Math: 90, 70 (average 80)",
		"RECOMMENDED MAJOR & MINOR",
		"we recommend: STEM with Humanities.",
		"Major: Physics\nMinor: Philosophy",
		"You like big questions.",
		"  - ETH Zurich",
		"Careers:\n  - Research Scientist",
		"FINAL THOUGHTS",
		"--- END OF REPORT ---",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "General Studies")
	assert.NotContains(t, out, "ROLE TYPE ANALYSIS")

	// Highest score first.
	assert.Less(t, strings.Index(out, "- STEM: 3"), strings.Index(out, "- Humanities: 1"))
}

func TestTextRenderer_NoMatchUsesFallback(t *testing.T) {
	out := renderText(t, majorMinorResult(false))

	assert.Contains(t, out, "does not match one of our prepared paths")
	assert.Contains(t, out, "Major: General Studies")
	assert.Contains(t, out, "Keep your options open.")
	assert.NotContains(t, out, "Physics")
}

func TestTextRenderer_RoleCareer(t *testing.T) {
	result := roleCareerResult()
	out := renderText(t, result)

	assert.Contains(t, out, "CAREER LINE ANALYSIS (PROGRESSION STYLE)")
	assert.Contains(t, out, "ROLE TYPE ANALYSIS (PREFERRED WORK ENVIRONMENT)")
	assert.Contains(t, out, "Your strongest preference here is Technical.")
	assert.Contains(t, out, "Your strongest preference here is Linear.")
	assert.Contains(t, out, "RECOMMENDED PATH")
	assert.Contains(t, out, "STEM domain, Technical role, Linear career line")
	assert.Contains(t, out, "Entry roles:\n  - Junior Developer")
	assert.Contains(t, out, "Companies: Acme, Globex")
	assert.Contains(t, out, "No academic marks were provided.")
	assert.NotContains(t, out, "Major:")
}

func TestTextRenderer_Deterministic(t *testing.T) {
	result := majorMinorResult(true)
	assert.Equal(t, renderText(t, result), renderText(t, result))
}

func TestTextRenderer_UnnamedStudent(t *testing.T) {
	result := majorMinorResult(true)
	result.Student = domain.Student{}
	assert.Contains(t, renderText(t, result), "Student:   Student\n")
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer()
	assert.Equal(t, FormatPDF, r.Format())
	assert.Equal(t, ".pdf", r.Extension())

	for name, result := range map[string]domain.Result{
		"major minor": majorMinorResult(true),
		"fallback":    majorMinorResult(false),
		"role career": roleCareerResult(),
	} {
		t.Run(name, func(t *testing.T) {
			var first, second bytes.Buffer
			require.NoError(t, r.Render(context.Background(), &first, result))
			require.NoError(t, r.Render(context.Background(), &second, result))

			assert.True(t, bytes.HasPrefix(first.Bytes(), []byte("%PDF-")))
			assert.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}

func TestRenderers_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	renderers, err := Renderers([]string{"text", "pdf"})
	require.NoError(t, err)
	for _, r := range renderers {
		assert.ErrorIs(t, r.Render(ctx, &bytes.Buffer{}, majorMinorResult(true)), context.Canceled)
	}
}

func TestRenderers(t *testing.T) {
	renderers, err := Renderers([]string{"TXT", " pdf ", "text"})
	require.NoError(t, err)
	require.Len(t, renderers, 2)
	assert.Equal(t, FormatText, renderers[0].Format())
	assert.Equal(t, FormatPDF, renderers[1].Format())

	_, err = Renderers([]string{"docx"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, err, ports.ErrUnsupportedFormat)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Asha Rao", "Asha_Rao_Career_Report.txt"},
		{"  Ravi   Kumar ", "Ravi_Kumar_Career_Report.txt"},
		{"../../etc/passwd", "etcpasswd_Career_Report.txt"},
		{"", "Student_Career_Report.txt"},
		{"José", "José_Career_Report.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(domain.Student{Name: tt.name}, ".txt"))
		})
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewFileSink(dir, zaptest.NewLogger(t))

	path, err := sink.Write(context.Background(), "a.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = sink.Write(context.Background(), "../escape.txt", nil)
	assert.ErrorIs(t, err, ports.ErrSinkFailed)
	_, err = sink.Write(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	renderers, err := Renderers([]string{"text", "pdf"})
	require.NoError(t, err)

	paths, err := Publish(context.Background(), majorMinorResult(true), renderers, NewFileSink(dir, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "Asha_Rao_Career_Report.txt"),
		filepath.Join(dir, "Asha_Rao_Career_Report.pdf"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	paths, err = PublishAs(context.Background(), majorMinorResult(true), "Asha Rao sheet 2", renderers[:1], NewFileSink(dir, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "Asha_Rao_sheet_2_Career_Report.txt")}, paths)
	assert.FileExists(t, filepath.Join(dir, "Asha_Rao_Career_Report.txt"), "the first report is kept")
}

type failingSink struct{}

func (failingSink) Write(context.Context, string, []byte) (string, error) {
	return "", errors.New("disk full")
}

var _ ports.ReportSink = failingSink{}

func TestPublish_SinkError(t *testing.T) {
	renderers, err := Renderers([]string{"text"})
	require.NoError(t, err)

	paths, err := Publish(context.Background(), majorMinorResult(true), renderers, failingSink{})
	var re *ports.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, FormatText, re.Format)
	assert.Equal(t, "write", re.Stage)
	assert.EqualError(t, re.Err, "disk full")
	assert.Empty(t, paths)
}
