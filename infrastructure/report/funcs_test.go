package report

import (
	"bytes"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncMap(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     any
		want     string
	}{
		{"add", `{{add 1 2}}`, nil, "3"},
		{"join", `{{join . ", "}}`, []string{"a", "b"}, "a, b"},
		{"join empty", `{{join . ", "}}`, []string{}, ""},
		{"upper", `{{upper "Final thoughts"}}`, nil, "FINAL THOUGHTS"},
		{"rule", `{{rule "=" 5}}`, nil, "====="},
		{"rule zero", `{{rule "=" 0}}`, nil, ""},
		{"truncate short", `{{truncate "hello" 10}}`, nil, "hello"},
		{"truncate long", `{{truncate "hello world" 8}}`, nil, "hello..."},
		{"truncate multibyte", `{{truncate "héllo wörld" 5}}`, nil, "hé..."},
		{"truncate tiny", `{{truncate "hello" 2}}`, nil, "he"},
		{"truncate zero", `{{truncate "hello" 0}}`, nil, ""},
		{"num whole", `{{num 80.0}}`, nil, "80"},
		{"num fraction", `{{num 4.5}}`, nil, "4.5"},
		{"nums", `{{nums .}}`, []float64{90, 72.5}, "90, 72.5"},
		{"plural one", `{{plural 1 "point" "points"}}`, nil, "point"},
		{"plural zero", `{{plural 0 "point" "points"}}`, nil, "points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := template.New("t").Funcs(FuncMap()).Parse(tt.template)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, tmpl.Execute(&buf, tt.data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
