package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `version: "1.0.0"
metadata:
  name: mini
questions:
  - id: 1
    theme: One
    prompt: "Pick a subject"
    options:
      - id: A
        label: "Numbers"
        tags: [STEM]
      - id: B
        label: "Stories"
        tags: [Humanities]
  - id: 2
    theme: Two
    prompt: "Pick another"
    options:
      - id: A
        label: "Circuits"
        tags: [STEM]
      - id: B
        label: "History"
        tags: [Humanities]
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Usage(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "usage: compass")

	_, stderr, err = runCLI(t, "", "frobnicate")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	_, _, err = runCLI(t, "", "help")
	assert.NoError(t, err)

	_, _, err = runCLI(t, "", "simulate", "-no-such-flag")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_CatalogList(t *testing.T) {
	stdout, _, err := runCLI(t, "", "catalog", "-list")
	require.NoError(t, err)
	assert.Equal(t, "career_guidance\npsychometric\n", stdout)
}

func TestRun_CatalogPrint(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)

	stdout, _, err := runCLI(t, "", "catalog", "-catalog", cat, "-log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mini 1.0.0")
	assert.Contains(t, stdout, "[One]")
	assert.Contains(t, stdout, "   A) Numbers [STEM=1]")
	assert.Contains(t, stdout, "2 questions")
}

func TestRun_Take(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)
	out := filepath.Join(dir, "reports")

	lines := []string{
		"parent",
		"Mira Shah",
		"",
		"Z", // not an option, asked again
		"A",
		"circuits", // labels work too
		"90", "70", // Math
	}
	// Remaining six subjects, two blank terms each.
	for i := 0; i < 12; i++ {
		lines = append(lines, "")
	}

	stdout, _, err := runCLI(t, strings.Join(lines, "\n")+"\n",
		"take", "-catalog", cat, "-out", out, "-log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, stdout, "== One (1 of 2) ==")
	assert.Contains(t, stdout, "== Two (2 of 2) ==")
	assert.Contains(t, stdout, "Not an option")
	assert.Contains(t, stdout, "Mira Shah: STEM")
	assert.FileExists(t, filepath.Join(out, "Mira_Shah_Career_Report.txt"))
	assert.FileExists(t, filepath.Join(out, "Mira_Shah_Career_Report.pdf"))

	text, err := os.ReadFile(filepath.Join(out, "Mira_Shah_Career_Report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "  - Math: 90, 70 (average 80)")
}

func TestRun_TakeInputClosed(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)

	_, _, err := runCLI(t, "student\nMira\n\n", "take", "-catalog", cat, "-out", dir, "-log-level", "error")
	assert.ErrorIs(t, err, errInputClosed)
}

func TestRun_Score(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)
	sheetA := writeTemp(t, dir, "ravi.yaml", `student:
  name: Ravi
answers:
  "1": B
  "2": History
academics:
  - subject: Social Studies
    scores: [88, "92%"]
`)
	sheetB := writeTemp(t, dir, "asha.json", `{"student":{"name":"Asha"},"answers":{"1":"A","2":"A"}}`)
	out := filepath.Join(dir, "reports")

	stdout, _, err := runCLI(t, "", "score", "-catalog", cat, "-out", out, "-log-level", "error", sheetA, sheetB)
	require.NoError(t, err)

	// Results are printed in argument order.
	assert.Less(t, strings.Index(stdout, "Ravi: Humanities"), strings.Index(stdout, "Asha: STEM"))
	assert.FileExists(t, filepath.Join(out, "Ravi_Career_Report.txt"))
	assert.FileExists(t, filepath.Join(out, "Asha_Career_Report.pdf"))
}

func TestRun_ScoreSameStudentName(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)
	first := writeTemp(t, dir, "ravi-term1.json", `{"student":{"name":"Ravi"},"answers":{"1":"A","2":"A"}}`)
	second := writeTemp(t, dir, "ravi-term2.json", `{"student":{"name":"Ravi"},"answers":{"1":"B","2":"B"}}`)
	other := writeTemp(t, dir, "asha.json", `{"student":{"name":"Asha"},"answers":{"1":"A","2":"B"}}`)
	out := filepath.Join(dir, "reports")

	_, stderr, err := runCLI(t, "", "score", "-catalog", cat, "-out", out, "-log-level", "error", first, second, other)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "Ravi_ravi-term1_Career_Report.txt"))
	assert.FileExists(t, filepath.Join(out, "Ravi_ravi-term2_Career_Report.txt"))
	assert.FileExists(t, filepath.Join(out, "Asha_Career_Report.txt"), "unique names keep the plain file name")
	assert.NoFileExists(t, filepath.Join(out, "Ravi_Career_Report.txt"))
	assert.Contains(t, stderr, "ravi-term1.json")
	assert.Contains(t, stderr, "ravi-term2.json")
}

func TestRun_ScoreErrors(t *testing.T) {
	dir := t.TempDir()
	cat := writeTemp(t, dir, "mini.yaml", testCatalog)
	bad := writeTemp(t, dir, "bad.yaml", "student:\n  name: Ravi\nanswers:\n  \"1\": Z\n  \"2\": A\n")
	incomplete := writeTemp(t, dir, "partial.yaml", "student:\n  name: Ravi\nanswers:\n  \"1\": A\n")

	_, _, err := runCLI(t, "", "score", "-catalog", cat, "-out", dir, "-log-level", "error", bad, incomplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
	assert.Contains(t, err.Error(), "partial.yaml")

	_, _, err = runCLI(t, "", "score", "-catalog", cat)
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_Simulate(t *testing.T) {
	stdout, _, err := runCLI(t, "", "simulate", "-n", "3", "-seed", "7", "-log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "STUDENT")
	assert.Contains(t, stdout, "Simulated Student 3")
	assert.Contains(t, stdout, "3 participants")

	again, _, err := runCLI(t, "", "simulate", "-n", "3", "-seed", "7", "-log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, stdout, again)
}

func TestRun_SimulateRoleCareer(t *testing.T) {
	stdout, _, err := runCLI(t, "", "simulate", "-variant", "role_career", "-n", "2", "-log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 participants")
}

func TestRun_InvalidConfigOverride(t *testing.T) {
	_, _, err := runCLI(t, "", "simulate", "-variant", "horoscope")
	assert.Error(t, err)
}
