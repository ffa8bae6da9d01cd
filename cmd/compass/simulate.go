package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ahrav/go-compass/internal/application"
)

func runSimulate(ctx context.Context, args []string, env *environment) error {
	fs, flags := newFlagSet("simulate", env)
	n := fs.Int("n", 1, "number of simulated participants")
	seed := fs.Uint64("seed", 1, "random seed")
	minScore := fs.Int("min-score", 40, "lowest generated academic score")
	maxScore := fs.Int("max-score", 100, "highest generated academic score")
	publish := fs.Bool("publish", false, "write a report for every participant")
	out := fs.String("out", "", "report directory (default: report.output_dir)")
	if err := parse(fs, args); err != nil {
		return err
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	sim, err := application.NewSimulator(a.catalog, application.Simulation{
		Seed:     *seed,
		MinScore: *minScore,
		MaxScore: *maxScore,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDENT\tTOP\tSECOND\tKEY\tMATCHED")
	counts := make(map[string]int)
	for i := 0; i < *n; i++ {
		sub, err := sim.Next()
		if err != nil {
			return err
		}
		result, err := a.engine.Evaluate(ctx, sub)
		if err != nil {
			return err
		}
		rec := result.Recommendation
		counts[rec.Key.String()]++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", sub.Student.Name, rec.Top, rec.Second, rec.Key, rec.Matched)
		if *publish {
			if err := a.publish(ctx, result, *out, env.stderr); err != nil {
				return err
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "\n%d participants, %d distinct profiles\n", *n, len(counts))
	return nil
}
