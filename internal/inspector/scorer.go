package inspector

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	officialHosts = []string{"wordpress.org"}

	premiumMarketplaceHosts = []string{
		"themeforest.net", "elegantthemes.com", "studiopress.com", "mythemeshop.com",
		"templatemonster.com", "creativemarket.com", "themify.me",
	}

	freeVendorHosts = []string{
		"wpastra.com", "generatepress.com", "oceanwp.org", "themeisle.com",
		"kadencewp.com", "creativethemes.com", "athemes.com", "themegrill.com",
	}

	popularThemes = []string{
		"astra", "divi", "avada", "enfold", "flatsome", "oceanwp", "generatepress",
		"kadence", "neve", "blocksy", "porto", "salient", "the7", "betheme",
		"hello elementor", "sydney", "hestia", "storefront", "twenty",
	}

	leadingVersionPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
)

const (
	manyPluginsThreshold = 12
	customThreshold      = 60
)

type scorer struct {
	verdict CustomizationVerdict
}

func (s *scorer) add(indicator string, delta int, class WeightClass) {
	s.verdict.Score += delta
	s.verdict.Indicators = append(s.verdict.Indicators, indicator)
	s.verdict.ScoringBreakdown = append(s.verdict.ScoringBreakdown, ScoreEntry{
		Indicator:   indicator,
		PointsDelta: delta,
		WeightClass: class,
	})
}

// Score evaluates the rule table in order. Rules that depend on the category
// read whatever earlier rules have set.
func Score(theme ThemeInfo, plugins []ExtensionRecord) CustomizationVerdict {
	s := &scorer{verdict: CustomizationVerdict{
		Indicators:       []string{},
		ScoringBreakdown: []ScoreEntry{},
	}}
	host := uriHost(theme.URI)
	lowerName := strings.ToLower(strings.TrimSpace(theme.Name))

	switch {
	case host != "" && hostIn(host, officialHosts):
		s.add("Theme hosted on WordPress.org", -50, WeightStrong)
		s.verdict.Category = CategoryWordPressOfficial
	case host != "" && hostIn(host, premiumMarketplaceHosts):
		s.add(fmt.Sprintf("Theme sold on premium marketplace (%s)", host), -45, WeightStrong)
		s.verdict.Category = CategoryPremiumMarketplace
	case host != "" && hostIn(host, freeVendorHosts):
		s.add(fmt.Sprintf("Theme from free theme vendor (%s)", host), -40, WeightStrong)
		s.verdict.Category = CategoryFreeMarketplace
	}

	if theme.IsChildTheme {
		switch s.verdict.Category {
		case CategoryWordPressOfficial, CategoryPremiumMarketplace, CategoryFreeMarketplace:
			s.add("Child theme of a marketplace template", 15, WeightStrong)
			s.verdict.Category = CategoryCustomizedTemplate
		default:
			s.add("Child theme detected", 45, WeightStrong)
			s.verdict.Category = CategoryCustomized
		}
	}

	if lowerName != "" && strings.TrimSpace(theme.URI) == "" {
		s.add("Theme has no public URI", 40, WeightStrong)
	}

	if !theme.IsChildTheme {
		if isPopularTheme(lowerName) {
			s.add(fmt.Sprintf("Popular theme (%s)", theme.Name), -25, WeightModerate)
			if s.verdict.Category == CategoryNone {
				s.verdict.Category = CategoryPopularTemplate
			}
		}
		for _, p := range plugins {
			if IsPageBuilder(p.Slug) {
				s.add(fmt.Sprintf("Page builder detected (%s)", p.DisplayName), -15, WeightModerate)
			}
		}
		if host != "" && !hostIn(host, officialHosts) && !hostIn(host, premiumMarketplaceHosts) && !hostIn(host, freeVendorHosts) {
			s.add(fmt.Sprintf("Theme URI on unknown host (%s)", host), 10, WeightLight)
		}
		themeSlug := slugify(theme.Name)
		authorSlug := slugify(theme.Author)
		for _, p := range plugins {
			if bundledWith(p.Slug, themeSlug) || bundledWith(p.Slug, authorSlug) {
				s.add(fmt.Sprintf("Plugin bundled with theme (%s)", p.Slug), -5, WeightLight)
			}
		}
	}

	if len(plugins) > manyPluginsThreshold {
		s.add(fmt.Sprintf("Large plugin footprint (%d plugins)", len(plugins)), 5, WeightLight)
	}

	if v, ok := leadingVersion(theme.Version); ok && v < 2.0 && host != "" && !hostIn(host, officialHosts) {
		s.add(fmt.Sprintf("Early theme version (%s)", theme.Version), 2, WeightLight)
	}

	s.verdict.ConfidencePercent = Confidence(s.verdict.Score)
	s.verdict.IsCustom = s.verdict.ConfidencePercent >= customThreshold
	if s.verdict.Category == CategoryNone {
		s.verdict.Category = categoryForScore(s.verdict.Score)
	}
	s.verdict.CategoryLabel = s.verdict.Category.Label()
	return s.verdict
}

// Confidence maps a score in [-100, 100] linearly onto [0, 100], clamping
// anything outside. Halves round up.
func Confidence(score int) int {
	n := max(0, min(200, score+100))
	return (n + 1) / 2
}

func categoryForScore(score int) Category {
	switch {
	case score >= 30:
		return CategoryCustomDevelopment
	case score >= 10:
		return CategoryLikelyCustom
	case score >= -10:
		return CategoryUncertain
	case score >= -30:
		return CategoryLikelyTemplate
	default:
		return CategoryCommercialTemplate
	}
}

func uriHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func hostIn(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func isPopularTheme(lowerName string) bool {
	if lowerName == "" {
		return false
	}
	for _, name := range popularThemes {
		if lowerName == name || strings.HasPrefix(lowerName, name+" ") {
			return true
		}
	}
	return false
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func bundledWith(pluginSlug, brand string) bool {
	return len(brand) >= 3 && strings.Contains(pluginSlug, brand)
}

func leadingVersion(v string) (float64, bool) {
	m := leadingVersionPattern.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
