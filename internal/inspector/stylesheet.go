package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

var (
	headerBlockPattern = regexp.MustCompile(`(?s)/\*(.*?)\*/`)

	headerThemeName   = headerField("Theme Name")
	headerVersion     = headerField("Version")
	headerAuthor      = headerField("Author")
	headerThemeURI    = headerField("Theme URI")
	headerDescription = headerField("Description")
	headerTemplate    = headerField("Template")
)

func headerField(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t*#@]*` + regexp.QuoteMeta(name) + `[ \t]*:(.*)$`)
}

type stylesheetHeader struct {
	ThemeName   string
	Version     string
	Author      string
	ThemeURI    string
	Description string
	Template    string
}

// parseStylesheetHeader reads the first comment block of a theme's
// style.css. ok is false when there is no comment block.
func parseStylesheetHeader(css string) (stylesheetHeader, bool) {
	m := headerBlockPattern.FindStringSubmatch(css)
	if m == nil {
		return stylesheetHeader{}, false
	}
	block := m[1]
	field := func(re *regexp.Regexp) string {
		if f := re.FindStringSubmatch(block); f != nil {
			return strings.TrimSpace(f[1])
		}
		return ""
	}
	return stylesheetHeader{
		ThemeName:   field(headerThemeName),
		Version:     field(headerVersion),
		Author:      field(headerAuthor),
		ThemeURI:    field(headerThemeURI),
		Description: field(headerDescription),
		Template:    field(headerTemplate),
	}, true
}

// apply overwrites theme fields with every header field that is present.
func (h stylesheetHeader) apply(theme *ThemeInfo) {
	overwrite := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overwrite(&theme.Name, h.ThemeName)
	overwrite(&theme.Version, h.Version)
	overwrite(&theme.Author, h.Author)
	overwrite(&theme.URI, h.ThemeURI)
	overwrite(&theme.Description, h.Description)
	if h.Template != "" {
		theme.IsChildTheme = true
		theme.ParentTheme = h.Template
	}
}

// confirmStylesheet fetches the theme stylesheet and lets its header override
// what the markup suggested. It reports whether the stylesheet was served.
func (in *Inspector) confirmStylesheet(ctx context.Context, stylesheetURL string, theme *ThemeInfo) bool {
	resp, err := in.get(ctx, "stylesheet", stylesheetURL, http.StatusBadRequest)
	if err != nil || resp.StatusCode != http.StatusOK {
		return false
	}
	if header, ok := parseStylesheetHeader(string(resp.Body)); ok {
		header.apply(theme)
	}
	return true
}

// renderedText decodes WordPress REST fields that arrive either as a plain
// string or as an object carrying raw, rendered or name.
type renderedText string

func (t *renderedText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = renderedText(s)
		return nil
	}
	var obj struct {
		Raw      string `json:"raw"`
		Rendered string `json:"rendered"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		*t = ""
		return nil
	}
	for _, v := range []string{obj.Raw, obj.Name, obj.Rendered} {
		if v != "" {
			*t = renderedText(v)
			return nil
		}
	}
	*t = ""
	return nil
}
