package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Detection sources recorded in ThemeInfo.DetectedFrom.
const (
	SourceMetaKeywords    = "meta keywords"
	SourceMetaDescription = "meta description"
	SourceStylesheet      = "stylesheet link"
	SourceScript          = "script src"
	SourceBodyClass       = "body class"
	SourceHTMLComment     = "HTML comment"
	SourceRESTAPI         = "REST API"
)

var (
	themeBrands = []string{
		"astra", "divi", "avada", "enfold", "flatsome", "oceanwp",
		"generatepress", "kadence", "neve", "blocksy", "porto", "salient",
	}

	brandThemePattern = regexp.MustCompile(`(?i)\b(` + strings.Join(themeBrands, "|") + `)\s*(?:wordpress\s*)?theme\b`)
	themePathPattern  = regexp.MustCompile(`/themes/([^/?#"'\s]+)/`)
	bodyThemePattern  = regexp.MustCompile(`(?i)(?:^|\s)(?:wp-)?theme-([a-z0-9_-]+)`)
	commentThemeRef   = regexp.MustCompile(`themes/([A-Za-z0-9_.-]+)`)

	derivedWordPattern   = regexp.MustCompile(`(?i)\b(?:child|custom|modified|personali[sz]ed)\b`)
	derivedSuffixPattern = regexp.MustCompile(`(?i)\s+alt$`)
)

// themeResolution accumulates the cascade state. Each setter only fills
// empty fields so earlier steps win.
type themeResolution struct {
	info       ThemeInfo
	stylesheet string
}

func (r *themeResolution) setName(name, source string) {
	name = strings.TrimSpace(name)
	if r.info.Name != "" || name == "" {
		return
	}
	r.info.Name = name
	r.info.DetectedFrom = source
}

func (r *themeResolution) setStylesheet(u string) {
	if r.stylesheet == "" {
		r.stylesheet = u
	}
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

// resolveTheme runs the detection cascade, normalizes the name, applies the
// derivation heuristic and finally confirms against the stylesheet header.
func (in *Inspector) resolveTheme(ctx context.Context, p *page) ThemeInfo {
	r := &themeResolution{}

	keywords := strings.ToLower(p.metaContent("keywords"))
	for _, brand := range themeBrands {
		if strings.Contains(keywords, brand) {
			r.setName(brand, SourceMetaKeywords)
			break
		}
	}

	if r.info.Name == "" {
		for _, field := range []struct{ key, source string }{
			{"description", SourceMetaDescription},
			{"keywords", SourceMetaKeywords},
		} {
			if m := brandThemePattern.FindStringSubmatch(p.metaContent(field.key)); m != nil {
				r.setName(strings.ToLower(m[1]), field.source)
				break
			}
		}
	}

	r.scanAssets(p, p.stylesheets, SourceStylesheet)
	if r.info.Name == "" || r.stylesheet == "" {
		r.scanAssets(p, p.scripts, SourceScript)
	}

	if r.info.Name == "" {
		if m := bodyThemePattern.FindStringSubmatch(p.bodyClass); m != nil {
			r.setName(m[1], SourceBodyClass)
		}
	}

	if r.info.Name == "" {
		for _, comment := range p.comments {
			if m := commentThemeRef.FindStringSubmatch(comment); m != nil {
				r.setName(m[1], SourceHTMLComment)
				break
			}
		}
	}

	if r.info.Name == "" {
		in.themeFromREST(ctx, p, r)
	}

	theme := r.info
	theme.Name = NormalizeThemeName(theme.Name)
	if !theme.IsChildTheme && theme.Name != "" {
		applyDerivationHeuristic(&theme)
	}
	switch {
	case r.stylesheet == "":
	case theme.DetectedFrom == SourceRESTAPI:
		theme.StylesheetURL = r.stylesheet
	case in.confirmStylesheet(ctx, r.stylesheet, &theme):
		theme.StylesheetURL = r.stylesheet
	}
	return theme
}

// scanAssets looks for a theme directory in refs. A versioned style.css is
// preferred because it also yields the version.
func (r *themeResolution) scanAssets(p *page, refs []string, source string) {
	for _, ref := range refs {
		if !strings.Contains(strings.ToLower(ref), "style.css?ver=") {
			continue
		}
		m := themePathPattern.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		abs := p.resolve(ref)
		r.setName(m[1], source)
		if u, err := url.Parse(abs); err == nil {
			fillEmpty(&r.info.Version, u.Query().Get("ver"))
			u.RawQuery = ""
			abs = u.String()
		}
		r.setStylesheet(abs)
		return
	}
	for _, ref := range refs {
		m := themePathPattern.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		r.setName(m[1], source)
		abs := p.resolve(ref)
		dir := "/themes/" + m[1] + "/"
		if i := strings.Index(abs, dir); i >= 0 {
			r.setStylesheet(abs[:i+len(dir)] + "style.css")
		}
		return
	}
}

type restTheme struct {
	Stylesheet  string       `json:"stylesheet"`
	Template    string       `json:"template"`
	Status      string       `json:"status"`
	Name        renderedText `json:"name"`
	Version     string       `json:"version"`
	Author      renderedText `json:"author"`
	Description renderedText `json:"description"`
	ThemeURI    renderedText `json:"theme_uri"`
}

func (in *Inspector) themeFromREST(ctx context.Context, p *page, r *themeResolution) {
	resp, err := in.get(ctx, "theme_listing", p.origin()+"/wp-json/wp/v2/themes", http.StatusInternalServerError)
	if err != nil || resp.StatusCode != http.StatusOK {
		return
	}
	themes, err := decodeListing[restTheme](resp.Body)
	if err != nil {
		in.logger.Debug("theme listing decode failed", zap.Error(err))
		return
	}
	for _, t := range themes {
		if t.Status != "active" {
			continue
		}
		name := t.Stylesheet
		if name == "" {
			name = string(t.Name)
		}
		r.setName(name, SourceRESTAPI)
		fillEmpty(&r.info.Version, t.Version)
		fillEmpty(&r.info.Author, string(t.Author))
		fillEmpty(&r.info.Description, string(t.Description))
		fillEmpty(&r.info.URI, string(t.ThemeURI))
		if t.Template != "" && t.Stylesheet != "" && t.Template != t.Stylesheet {
			r.info.IsChildTheme = true
			fillEmpty(&r.info.ParentTheme, t.Template)
		}
		if t.Stylesheet != "" {
			r.setStylesheet(p.origin() + "/wp-content/themes/" + t.Stylesheet + "/style.css")
		}
		return
	}
}

// decodeListing accepts either a JSON array or an object keyed by id.
func decodeListing[T any](body []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var keyed map[string]T
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, err
	}
	list = make([]T, 0, len(keyed))
	for _, v := range keyed {
		list = append(list, v)
	}
	return list, nil
}

// NormalizeThemeName turns a slug into a display name: hyphens and
// underscores become spaces and every word is capitalized. It is idempotent.
func NormalizeThemeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func applyDerivationHeuristic(theme *ThemeInfo) {
	var stripped string
	switch {
	case derivedWordPattern.MatchString(theme.Name):
		stripped = derivedWordPattern.ReplaceAllString(theme.Name, " ")
	case derivedSuffixPattern.MatchString(theme.Name):
		stripped = derivedSuffixPattern.ReplaceAllString(theme.Name, "")
	default:
		return
	}
	theme.IsChildTheme = true
	parent := NormalizeThemeName(stripped)
	if parent != "" && !strings.EqualFold(parent, theme.Name) {
		theme.ParentTheme = parent
	}
}
