package inspector

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

var (
	bodyClassPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:wp-[a-z0-9_-]+|wordpress|page-template(?:-[a-z0-9_-]+)?|postid-\d+|page-id-\d+)(?:\s|$)`)

	customStructurePatterns = []*regexp.Regexp{
		regexp.MustCompile(`style\.css\?ver=`),
		regexp.MustCompile(`wp-json`),
		regexp.MustCompile(`wordpress`),
		regexp.MustCompile(`woocommerce`),
		regexp.MustCompile(`wp-admin`),
	}

	metaKeywordMarkers = []string{
		"wordpress", "woocommerce", "astra", "divi", "avada", "flatsome", "enfold", "oceanwp",
	}

	bundledAssetMarkers = []string{
		"wp-emoji-release",
		"jquery-migrate",
		"wp-embed",
		"block-library",
		"comment-reply",
		"wp-polyfill",
		"wp-hooks",
		"hooks.min.js",
		"i18n.min.js",
	}
)

// extractSignals runs every platform check. Checks are independent; the REST
// probe is the only one that leaves the process.
func (in *Inspector) extractSignals(ctx context.Context, p *page) Signals {
	s := Signals{
		HasContentPath:    strings.Contains(p.raw, "/wp-content/"),
		HasIncludesPath:   strings.Contains(p.raw, "/wp-includes/"),
		HasAdminAjaxRef:   strings.Contains(p.lower, "admin-ajax.php"),
		HasEmojiScriptRef: strings.Contains(p.lower, "wp-emoji-release.min.js") || strings.Contains(p.raw, "_wpemojiSettings"),
		HasXMLRPCRef:      strings.Contains(p.lower, "xmlrpc.php"),
		BodyClassMatch:    bodyClassPattern.MatchString(p.bodyClass),
	}

	generator := strings.ToLower(p.metaContent("generator"))
	s.MetaGeneratorMatch = strings.Contains(generator, "wordpress")

	keywords := strings.ToLower(p.metaContent("keywords"))
	for _, marker := range metaKeywordMarkers {
		if strings.Contains(keywords, marker) {
			s.MetaKeywordsMatch = true
			s.MetaGeneratorMatch = true
			break
		}
	}

	for _, re := range customStructurePatterns {
		if re.MatchString(p.lower) {
			s.HasCustomStructureMatch = true
			break
		}
	}

	assets := strings.ToLower(strings.Join(p.assetRefs(), " "))
	for _, marker := range bundledAssetMarkers {
		if strings.Contains(assets, marker) {
			s.HasBundledAssetRef = true
			break
		}
	}

	s.RESTEndpointReachable = in.probeREST(ctx, p)
	return s
}

func (in *Inspector) probeREST(ctx context.Context, p *page) bool {
	resp, err := in.get(ctx, "rest_probe", p.origin()+"/wp-json/", http.StatusInternalServerError)
	if err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK
}
