// Package catalog holds the question catalogs shipped with compass and the
// tabular CSV catalog source. YAML catalogs are decoded and validated by the
// application's CatalogLoader; this package only supplies their bytes and
// the weight expression grammar shared by both formats.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Names of the built-in catalogs.
const (
	CareerGuidance = "career_guidance"
	Psychometric   = "psychometric"
)

// ErrUnknownBuiltin is returned when no embedded catalog has the name.
var ErrUnknownBuiltin = errors.New("unknown built-in catalog")

//go:embed data/*.yaml
var builtins embed.FS

// Builtin returns the YAML source of an embedded catalog.
func Builtin(name string) ([]byte, error) {
	if !IsBuiltin(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
	}
	return builtins.ReadFile("data/" + name + ".yaml")
}

// BuiltinNames lists the embedded catalogs in sorted order.
func BuiltinNames() []string {
	entries, err := builtins.ReadDir("data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// IsBuiltin reports whether name refers to an embedded catalog.
func IsBuiltin(name string) bool {
	return slices.Contains(BuiltinNames(), name)
}
