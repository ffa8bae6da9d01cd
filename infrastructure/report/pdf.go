package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.ReportRenderer = (*PDFRenderer)(nil)

// PDFRenderer lays the report out on A4 pages with the core Arial font.
// Text is translated to cp1252, so characters outside it print as "?".
type PDFRenderer struct{}

// NewPDFRenderer returns a PDF renderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

// Format implements ports.ReportRenderer.
func (r *PDFRenderer) Format() string { return FormatPDF }

// Extension implements ports.ReportRenderer.
func (r *PDFRenderer) Extension() string { return ".pdf" }

// Render implements ports.ReportRenderer. The document carries the result's
// timestamp, so the same result renders to the same bytes.
func (r *PDFRenderer) Render(ctx context.Context, w io.Writer, result domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := newView(result)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(v.GeneratedAt)
	pdf.SetModificationDate(v.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(v.Title, true)
	pdf.SetAuthor("compass", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 102, 204)
	p.cell(10, v.Title, "C")

	pdf.SetFont("Arial", "I", 12)
	pdf.SetTextColor(100, 100, 100)
	p.cell(10, "Student Name: "+v.Student.Name)
	pdf.SetTextColor(0, 0, 0)

	p.heading("Your Career Personality & Interests")
	p.para("Based on your answers, we've identified the dominant areas of interest and working styles " +
		"that best define you. This gives a glimpse into the kind of environments and careers you may thrive in.")
	for _, c := range v.Categories {
		p.cell(8, fmt.Sprintf("- %s (score: %d)", c.Category, c.Total))
	}

	for _, f := range v.Families {
		p.heading(f.Heading)
		for _, c := range f.Scores {
			p.cell(8, fmt.Sprintf("- %s: %d points", c.Category, c.Total))
		}
		p.para(fmt.Sprintf("Your strongest preference here is %s.", f.Dominant))
	}

	p.heading("Your Academic Strengths")
	if len(v.Subjects) == 0 {
		p.para("No academic marks were provided.")
	} else {
		p.para("Here's a summary of your self-reported scores. These help us understand which subjects you're most confident in.")
		for _, s := range v.Subjects {
			p.cell(8, fmt.Sprintf("%s: %s (average %s)", s.Name, joinNumbers(s.Scores), formatNumber(s.Average)))
		}
	}

	if v.Variant == domain.VariantRoleCareer {
		p.heading("Recommended Path")
	} else {
		p.heading("Recommended Major & Minor")
	}
	var rec strings.Builder
	if v.Matched {
		fmt.Fprintf(&rec, "Based on your strengths and interests, drawn from both your responses and academic subject scores, we recommend: %s.", v.Headline)
	} else {
		fmt.Fprintf(&rec, "Your profile (%s) does not match one of our prepared paths, so here is some general guidance instead.", v.Headline)
	}
	if v.Major != "" {
		fmt.Fprintf(&rec, "\n\nMajor: %s\nMinor: %s", v.Major, v.Minor)
	}
	if v.Message != "" {
		fmt.Fprintf(&rec, "\n\n%s", v.Message)
	}
	rec.WriteString("\n\nDomain blend:")
	for _, b := range v.Ranking {
		fmt.Fprintf(&rec, "\n- %s: %s (academic boost %s)", b.Domain, formatNumber(b.Blended), formatNumber(b.Academic))
	}
	p.para(rec.String())

	if len(v.Universities) > 0 {
		p.heading("Top Global Universities to Explore")
		pdf.SetFont("Arial", "", 10)
		for _, u := range v.Universities {
			p.cell(8, "- "+u)
		}
	}

	if len(v.Careers)+len(v.EntryRoles)+len(v.Companies) > 0 {
		p.heading("Potential Career Paths & Entry Roles")
		pdf.SetFont("Arial", "", 10)
		for _, c := range append(append([]string(nil), v.Careers...), v.EntryRoles...) {
			p.cell(8, "- "+c)
		}
		if len(v.Companies) > 0 {
			p.cell(8, "Companies: "+strings.Join(v.Companies, ", "))
		}
	}

	p.heading("Final Thoughts")
	pdf.SetFont("Arial", "I", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 8, p.tr(v.Closing), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return ports.NewRenderError(FormatPDF, "render", err)
	}
	return nil
}

// page wraps the repeated fpdf calls of a report section.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *page) heading(title string) {
	p.pdf.Ln(5)
	p.pdf.SetFont("Arial", "B", 13)
	p.pdf.SetTextColor(0, 0, 0)
	p.cell(10, title)
	p.pdf.SetFont("Arial", "", 11)
}

func (p *page) cell(h float64, text string, align ...string) {
	a := "L"
	if len(align) > 0 {
		a = align[0]
	}
	p.pdf.CellFormat(0, h, p.tr(text), "", 1, a, false, 0, "")
}

func (p *page) para(text string) {
	p.pdf.MultiCell(0, 8, p.tr(text), "", "L", false)
	p.pdf.Ln(1)
}

func joinNumbers(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ", ")
}
