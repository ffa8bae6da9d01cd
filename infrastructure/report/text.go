package report

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"text/template"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.ReportRenderer = (*TextRenderer)(nil)

//go:embed templates/report.txt.tmpl
var textTemplate string

// TextRenderer writes the plain-text narrative report.
type TextRenderer struct {
	tmpl *template.Template
}

// NewTextRenderer parses the embedded report template.
func NewTextRenderer() (*TextRenderer, error) {
	tmpl, err := template.New("report").Funcs(FuncMap()).Option("missingkey=error").Parse(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &TextRenderer{tmpl: tmpl}, nil
}

// Format implements ports.ReportRenderer.
func (r *TextRenderer) Format() string { return FormatText }

// Extension implements ports.ReportRenderer.
func (r *TextRenderer) Extension() string { return ".txt" }

// Render implements ports.ReportRenderer.
func (r *TextRenderer) Render(ctx context.Context, w io.Writer, result domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.tmpl.Execute(w, newView(result)); err != nil {
		return ports.NewRenderError(FormatText, "render", err)
	}
	return nil
}
