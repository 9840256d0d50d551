package inspector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

const maxDebugComments = 10

var (
	debugThemeName  = regexp.MustCompile(`/themes/([^/]+)/`)
	debugPluginName = regexp.MustCompile(`/plugins/([^/]+)/`)
)

// RESTProbe is the outcome of the /wp-json/ probe in a debug report.
type RESTProbe struct {
	Available bool            `json:"available"`
	Status    int             `json:"status,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// RawMarkers are the two path markers plus the generator content verbatim.
type RawMarkers struct {
	WPContent     bool   `json:"wpContent"`
	WPIncludes    bool   `json:"wpIncludes"`
	MetaGenerator string `json:"metaGenerator,omitempty"`
}

// DebugReport dumps the raw evidence the resolvers work from.
type DebugReport struct {
	URL              string     `json:"url"`
	ContentSHA256    string     `json:"contentSha256"`
	Stylesheets      []string   `json:"stylesheets"`
	Scripts          []string   `json:"scripts"`
	ThemeReferences  []string   `json:"themeReferences"`
	PluginReferences []string   `json:"pluginReferences"`
	MetaTags         []MetaTag  `json:"metaTags"`
	HTMLComments     []string   `json:"htmlComments"`
	ThemeNames       []string   `json:"themeNames"`
	PluginNames      []string   `json:"pluginNames"`
	WPSignals        RawMarkers `json:"wpSignals"`
	WPJSON           RESTProbe  `json:"wpJson"`
}

// Debug fetches rawURL and reports the asset, meta and comment evidence
// without running detection.
func (in *Inspector) Debug(ctx context.Context, rawURL string) (DebugReport, error) {
	target, err := in.target(rawURL)
	if err != nil {
		return DebugReport{}, err
	}
	p, err := in.load(ctx, target)
	if err != nil {
		return DebugReport{}, err
	}

	sum := sha256.Sum256([]byte(p.raw))
	report := DebugReport{
		URL:              target.String(),
		ContentSHA256:    hex.EncodeToString(sum[:]),
		Stylesheets:      nonNil(p.stylesheets),
		Scripts:          nonNil(p.scripts),
		ThemeReferences:  []string{},
		PluginReferences: []string{},
		MetaTags:         []MetaTag{},
		HTMLComments:     []string{},
		WPSignals: RawMarkers{
			WPContent:     strings.Contains(p.raw, "/wp-content/"),
			WPIncludes:    strings.Contains(p.raw, "/wp-includes/"),
			MetaGenerator: p.metaContent("generator"),
		},
	}

	for _, ref := range p.assetRefs() {
		if strings.Contains(ref, "/themes/") {
			report.ThemeReferences = append(report.ThemeReferences, ref)
		}
		if strings.Contains(ref, "/plugins/") {
			report.PluginReferences = append(report.PluginReferences, ref)
		}
	}
	for _, m := range p.meta {
		if m.Name != "" && m.Content != "" {
			report.MetaTags = append(report.MetaTags, MetaTag{Name: m.Name, Content: m.Content})
		}
	}
	for i, c := range p.comments {
		if i == maxDebugComments {
			break
		}
		report.HTMLComments = append(report.HTMLComments, "<!--"+c+"-->")
	}
	report.ThemeNames = uniqueMatches(report.ThemeReferences, debugThemeName)
	report.PluginNames = uniqueMatches(report.PluginReferences, debugPluginName)

	resp, err := in.get(ctx, "rest_probe", p.origin()+"/wp-json/", http.StatusInternalServerError)
	switch {
	case err != nil:
		report.WPJSON = RESTProbe{Error: err.Error()}
	case resp.StatusCode == http.StatusOK:
		report.WPJSON = RESTProbe{Available: true, Status: resp.StatusCode}
		if json.Valid(resp.Body) {
			report.WPJSON.Data = json.RawMessage(resp.Body)
		}
	default:
		report.WPJSON = RESTProbe{Status: resp.StatusCode}
	}
	return report, nil
}

func uniqueMatches(refs []string, re *regexp.Regexp) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, ref := range refs {
		m := re.FindStringSubmatch(ref)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
