package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrav/go-compass/infrastructure/catalog"
)

func runCatalog(ctx context.Context, args []string, env *environment) error {
	fs, flags := newFlagSet("catalog", env)
	list := fs.Bool("list", false, "list the built-in catalogs and exit")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *list {
		for _, name := range catalog.BuiltinNames() {
			fmt.Fprintln(env.stdout, name)
		}
		return nil
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	cat := a.catalog
	out := env.stdout
	fmt.Fprintf(out, "%s %s\n", cat.Name, cat.Version)
	if cat.Description != "" {
		fmt.Fprintln(out, cat.Description)
	}
	fmt.Fprintln(out)
	for _, f := range cat.Families {
		fmt.Fprintf(out, "family %s: %s\n", f.Name, strings.Join(f.Categories, ", "))
	}
	for _, theme := range cat.Themes() {
		fmt.Fprintf(out, "\n[%s]\n", theme)
		for _, q := range cat.QuestionsInTheme(theme) {
			fmt.Fprintf(out, "%d. %s\n", q.ID, q.Prompt)
			for _, o := range q.Options {
				weights := catalog.FormatWeights(o.Weights)
				if weights == "" {
					weights = "neutral"
				}
				fmt.Fprintf(out, "   %s) %s [%s]\n", o.ID, o.Label, weights)
			}
		}
	}

	variant := a.cfg.Variant()
	fmt.Fprintf(out, "\n%d questions, %d categories; %d %s reference rows (table %s)\n",
		len(cat.Questions), len(cat.Categories()), len(a.references.Keys(variant)), variant, a.references.Version())
	return nil
}
