package inspector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStylesheetHeader(t *testing.T) {
	t.Parallel()

	css := `/**
 * Theme Name:  Astra Child
 * Author:      Brainstorm Force
 * Version: 1.0.0
 * Template: astra
 */
/* Theme Name: Not This One */`
	h, ok := parseStylesheetHeader(css)
	require.True(t, ok)
	assert.Equal(t, "Astra Child", h.ThemeName)
	assert.Equal(t, "Brainstorm Force", h.Author)
	assert.Equal(t, "1.0.0", h.Version)
	assert.Equal(t, "astra", h.Template)
	assert.Empty(t, h.ThemeURI)
	assert.Empty(t, h.Description)
}

func TestParseStylesheetHeaderWithoutComment(t *testing.T) {
	t.Parallel()

	_, ok := parseStylesheetHeader("body { margin: 0 }")
	assert.False(t, ok)
}

func TestStylesheetHeaderApply(t *testing.T) {
	t.Parallel()

	theme := ThemeInfo{Name: "Shop", Version: "2.0", Author: "Someone", DetectedFrom: SourceStylesheet}
	stylesheetHeader{ThemeName: "Shop Child", Template: "Shop"}.apply(&theme)
	assert.Equal(t, ThemeInfo{
		Name:         "Shop Child",
		Version:      "2.0",
		Author:       "Someone",
		IsChildTheme: true,
		ParentTheme:  "Shop",
		DetectedFrom: SourceStylesheet,
	}, theme)

	plain := ThemeInfo{Name: "Neve"}
	stylesheetHeader{Version: "3.1"}.apply(&plain)
	assert.False(t, plain.IsChildTheme)
	assert.Equal(t, "3.1", plain.Version)
}

func TestRenderedTextDecoding(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`"Plain"`:                             "Plain",
		`{"raw":"Raw","rendered":"<b>R</b>"}`: "Raw",
		`{"name":"Named"}`:                    "Named",
		`{"rendered":"Rendered"}`:             "Rendered",
		`{}`:                                  "",
		`42`:                                  "",
		`null`:                                "",
	}
	for in, want := range cases {
		var got renderedText
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, string(got), in)
	}
}
