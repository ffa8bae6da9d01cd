package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-compass/infrastructure/answersheet"
	"github.com/ahrav/go-compass/infrastructure/report"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/domain"
)

func runScore(ctx context.Context, args []string, env *environment) error {
	fs, flags := newFlagSet("score", env)
	out := fs.String("out", "", "report directory (default: report.output_dir)")
	workers := fs.Int("workers", 4, "sheets evaluated concurrently")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(env.stderr, "score: at least one answer sheet is required")
		return errUsage
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	results, err := a.scoreSheets(ctx, fs.Args(), *workers)
	if err != nil {
		return err
	}
	bases := a.reportBases(fs.Args(), results, env.stderr)
	for i, r := range results {
		printSummary(env.stdout, r)
		if err := a.publishAs(ctx, r, bases[i], *out, env.stdout); err != nil {
			return err
		}
	}
	return nil
}

// reportBases returns the report file base of every result. Students whose
// names would share a report file get the sheet's base name appended, with
// a warning, so no report overwrites another.
func (a *app) reportBases(paths []string, results []domain.Result, warn io.Writer) []string {
	count := make(map[string]int, len(results))
	for _, r := range results {
		count[report.BaseName(r.Student.Name)]++
	}
	bases := make([]string, len(results))
	for i, r := range results {
		base := report.BaseName(r.Student.Name)
		if count[base] > 1 {
			sheet := strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i]))
			a.logger.Warn("several sheets share a student name; naming the report after the sheet",
				zap.String("student", r.Student.Name),
				zap.String("sheet", paths[i]),
			)
			fmt.Fprintf(warn, "warning: %s shares the student name %q; report named after the sheet\n", paths[i], r.Student.Name)
			base += "_" + sheet
		}
		bases[i] = base
	}
	return bases
}

// scoreSheets evaluates every sheet and returns the results in argument
// order. Every failing sheet is reported, not only the first.
func (a *app) scoreSheets(ctx context.Context, paths []string, workers int) ([]domain.Result, error) {
	results := make([]domain.Result, len(paths))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			result, err := a.scoreSheet(ctx, path)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (a *app) scoreSheet(ctx context.Context, path string) (domain.Result, error) {
	sheet, err := answersheet.ParseFile(path)
	if err != nil {
		return domain.Result{}, err
	}
	if sheet.Catalog != "" && sheet.Catalog != a.catalog.Name {
		a.logger.Warn("answer sheet was filled in for another catalog",
			zap.String("sheet", path),
			zap.String("sheet_catalog", sheet.Catalog),
			zap.String("catalog", a.catalog.Name),
		)
	}
	resolved, err := sheet.Resolve(a.catalog, a.cfg.DuplicatePolicy())
	if err != nil {
		return domain.Result{}, err
	}
	return a.engine.Evaluate(ctx, application.Submission{
		SessionID: "sheet-" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Student:   resolved.Student,
		Answers:   resolved.Answers,
		Academics: resolved.Academics,
	})
}
