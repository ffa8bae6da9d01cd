package report

import (
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"
)

// FuncMap returns the template functions available to report templates.
//
// The functions are stateless and never panic, so a template cannot fail
// halfway through a report because of odd input.
//
// Usage:
//
//	tmpl, err := template.New("report").Funcs(FuncMap()).Parse(src)
func FuncMap() template.FuncMap {
	return template.FuncMap{
		// add performs integer addition.
		// Template usage: {{add $i 1}}
		"add": func(a, b int) int {
			return a + b
		},

		// join concatenates elements with sep between them.
		// Template usage: {{join .Careers ", "}}
		"join": func(elems []string, sep string) string {
			return strings.Join(elems, sep)
		},

		// upper maps all letters to upper case.
		"upper": strings.ToUpper,

		// rule returns a line of n copies of s.
		// Returns "" when n <= 0.
		// Template usage: {{rule "=" 40}}
		"rule": func(s string, n int) string {
			if n <= 0 {
				return ""
			}
			return strings.Repeat(s, n)
		},

		// truncate limits s to length runes, ending in "..." when cut.
		// Template usage: {{truncate .Message 80}}
		"truncate": truncate,

		// num formats a float with one decimal place, or none when whole.
		// Template usage: {{num .Blended}}
		"num": formatNumber,

		// nums formats a list of floats separated by ", ".
		// Template usage: {{nums .Scores}}
		"nums": joinNumbers,

		// plural returns singular when n is 1 and plural otherwise.
		// Template usage: {{.Total}} {{plural .Total "point" "points"}}
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
	}
}

func truncate(s string, length int) string {
	if length <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	if length > 3 {
		return string(runes[:length-3]) + "..."
	}
	return string(runes[:length])
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
