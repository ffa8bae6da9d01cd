package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ahrav/go-compass/infrastructure/report"
	"github.com/ahrav/go-compass/internal/domain"
)

// publish writes result in every configured format under dir, or under
// report.output_dir when dir is empty, and lists the files written.
func (a *app) publish(ctx context.Context, result domain.Result, dir string, out io.Writer) error {
	return a.publishAs(ctx, result, result.Student.Name, dir, out)
}

// publishAs is publish with report file names built from base.
func (a *app) publishAs(ctx context.Context, result domain.Result, base, dir string, out io.Writer) error {
	if dir == "" {
		dir = a.cfg.Report.OutputDir
	}
	renderers, err := report.Renderers(a.cfg.Report.Formats)
	if err != nil {
		return err
	}
	paths, err := report.PublishAs(ctx, result, base, renderers, report.NewFileSink(dir, a.logger))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "report written to %s\n", p)
	}
	return nil
}

// printSummary prints the one-paragraph outcome of an evaluation.
func printSummary(out io.Writer, result domain.Result) {
	rec := result.Recommendation
	name := result.Student.Name
	if name == "" {
		name = "Student"
	}
	fmt.Fprintf(out, "\n%s: %s", name, rec.Key)
	if !rec.Matched {
		fmt.Fprint(out, " (no prepared path, general guidance)")
	}
	fmt.Fprintln(out)

	g := rec.Guidance()
	if g.Major != "" {
		fmt.Fprintf(out, "  major %s, minor %s\n", g.Major, g.Minor)
	}
	if len(g.Careers) > 0 {
		fmt.Fprintf(out, "  careers: %v\n", g.Careers)
	}
}
