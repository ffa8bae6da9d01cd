package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahrav/go-compass/internal/domain"
)

// ErrWeightSyntax is returned for a weight expression that cannot be parsed.
var ErrWeightSyntax = errors.New("invalid weight expression")

// ParseWeights parses an option's weight expression into structured
// weights. Two spellings are accepted:
//
//	Specialist=3, Linear=2
//	{'Specialist': 3, "Linear": 2}
//
// An empty expression, or an empty dict, is a neutral option and yields no
// weights. Pairs keep their written order. A category may appear only once.
// Category names cannot contain commas.
func ParseWeights(expr string) ([]domain.Weight, error) {
	body := strings.TrimSpace(expr)
	dict := strings.HasPrefix(body, "{")
	if dict {
		if !strings.HasSuffix(body, "}") {
			return nil, fmt.Errorf("%w: unterminated dict in %q", ErrWeightSyntax, expr)
		}
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	if body == "" {
		return nil, nil
	}

	pairs := strings.Split(body, ",")
	weights := make([]domain.Weight, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for i, pair := range pairs {
		if strings.TrimSpace(pair) == "" {
			// A trailing comma is tolerated.
			if i == len(pairs)-1 && i > 0 {
				continue
			}
			return nil, fmt.Errorf("%w: empty pair %d in %q", ErrWeightSyntax, i+1, expr)
		}

		name, value, err := splitPair(pair, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d in %q: %v", ErrWeightSyntax, i+1, expr, err)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: category %q listed twice in %q", ErrWeightSyntax, name, expr)
		}
		seen[name] = struct{}{}

		points, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %q for %s is not an integer", ErrWeightSyntax, value, name)
		}
		weights = append(weights, domain.Weight{Category: name, Points: points})
	}
	return weights, nil
}

// splitPair separates a single "name=value" or "'name': value" pair.
func splitPair(pair string, dict bool) (string, string, error) {
	sep := "="
	if dict {
		sep = ":"
	}
	idx := strings.LastIndex(pair, sep)
	if idx < 0 && !dict {
		// Tolerate the colon spelling outside braces too.
		sep = ":"
		idx = strings.LastIndex(pair, sep)
	}
	if idx < 0 {
		return "", "", fmt.Errorf("missing %q", sep)
	}

	name := strings.TrimSpace(pair[:idx])
	value := strings.TrimSpace(pair[idx+1:])
	if dict {
		unquoted, err := unquote(name)
		if err != nil {
			return "", "", err
		}
		name = strings.TrimSpace(unquoted)
	}
	if name == "" {
		return "", "", errors.New("empty category")
	}
	if value == "" {
		return "", "", fmt.Errorf("empty weight for %s", name)
	}
	return name, value, nil
}

func unquote(s string) (string, error) {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1], nil
		}
	}
	return "", fmt.Errorf("category %q must be quoted", s)
}

// FormatWeights renders weights in the "Name=points" spelling accepted by
// ParseWeights.
func FormatWeights(weights []domain.Weight) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = w.Category + "=" + strconv.Itoa(w.Points)
	}
	return strings.Join(parts, ", ")
}
