package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// Report formats.
const (
	FormatText = "text"
	FormatPDF  = "pdf"
)

// ErrUnknownFormat is returned for a report format no renderer provides.
var ErrUnknownFormat = fmt.Errorf("report: %w", ports.ErrUnsupportedFormat)

var _ ports.ReportSink = (*FileSink)(nil)

// FileSink writes reports into a directory, creating it on first use.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink returns a sink writing under dir. A nil logger is replaced
// by a no-op logger.
func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{dir: dir, logger: logger.With(zap.String("component", "report_sink"))}
}

// Write implements ports.ReportSink. An existing file of the same name is
// replaced.
func (s *FileSink) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid report file name %q", ports.ErrSinkFailed, name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create report directory: %w", ports.ErrSinkFailed, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write report: %w", ports.ErrSinkFailed, err)
	}
	s.logger.Info("report written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// FileName returns "<Name>_Career_Report<ext>" with spaces replaced by
// underscores and path separators and other unsafe characters dropped.
func FileName(student domain.Student, ext string) string {
	return BaseName(student.Name) + "_Career_Report" + ext
}

// BaseName returns name made safe for a file name, or "Student" when
// nothing usable is left.
func BaseName(name string) string {
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, name)
	name = strings.Trim(name, ".")
	if name == "" {
		name = "Student"
	}
	return name
}

// Renderers returns one renderer per format, in the order given. Duplicate
// formats are rendered once.
func Renderers(formats []string) ([]ports.ReportRenderer, error) {
	var out []ports.ReportRenderer
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "txt" {
			f = FormatText
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		switch f {
		case FormatText:
			r, err := NewTextRenderer()
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		case FormatPDF:
			out = append(out, NewPDFRenderer())
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	return out, nil
}

// Publish renders result with every renderer and hands each document to
// sink. It returns the stored locations in renderer order and stops at the
// first failure.
func Publish(ctx context.Context, result domain.Result, renderers []ports.ReportRenderer, sink ports.ReportSink) ([]string, error) {
	return PublishAs(ctx, result, BaseName(result.Student.Name), renderers, sink)
}

// PublishAs is Publish with the file names built from base instead of the
// student name.
func PublishAs(ctx context.Context, result domain.Result, base string, renderers []ports.ReportRenderer, sink ports.ReportSink) ([]string, error) {
	base = BaseName(base)
	paths := make([]string, 0, len(renderers))
	for _, r := range renderers {
		var buf bytes.Buffer
		if err := r.Render(ctx, &buf, result); err != nil {
			return paths, err
		}
		path, err := sink.Write(ctx, base+"_Career_Report"+r.Extension(), buf.Bytes())
		if err != nil {
			return paths, ports.NewRenderError(r.Format(), "write", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
