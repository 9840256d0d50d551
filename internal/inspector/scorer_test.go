package inspector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Confidence(-100))
	assert.Equal(t, 0, Confidence(-250))
	assert.Equal(t, 100, Confidence(100))
	assert.Equal(t, 100, Confidence(180))
	assert.Equal(t, 50, Confidence(0))
	assert.Equal(t, 58, Confidence(15))
	assert.Equal(t, 60, Confidence(20))

	prev := Confidence(-120)
	for score := -119; score <= 120; score++ {
		c := Confidence(score)
		assert.GreaterOrEqual(t, c, prev, "score %d", score)
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, 100)
		prev = c
	}
}

func TestScorePopularTemplateWithoutURI(t *testing.T) {
	t.Parallel()

	v := Score(ThemeInfo{Name: "Astra", DetectedFrom: SourceStylesheet}, nil)
	assert.Equal(t, 15, v.Score)
	assert.Equal(t, 58, v.ConfidencePercent)
	assert.False(t, v.IsCustom)
	assert.Equal(t, CategoryPopularTemplate, v.Category)
	assert.Equal(t, "Popular template", v.CategoryLabel)
	assert.Equal(t, []string{"Theme has no public URI", "Popular theme (Astra)"}, v.Indicators)
	assert.Equal(t, []ScoreEntry{
		{Indicator: "Theme has no public URI", PointsDelta: 40, WeightClass: WeightStrong},
		{Indicator: "Popular theme (Astra)", PointsDelta: -25, WeightClass: WeightModerate},
	}, v.ScoringBreakdown)
}

func TestScoreRules(t *testing.T) {
	t.Parallel()

	manyPlugins := make([]ExtensionRecord, 13)
	for i := range manyPlugins {
		manyPlugins[i] = ExtensionRecord{Slug: fmt.Sprintf("plugin-%d", i)}
	}

	cases := []struct {
		name     string
		theme    ThemeInfo
		plugins  []ExtensionRecord
		score    int
		category Category
		custom   bool
	}{
		{
			name:     "official directory theme",
			theme:    ThemeInfo{Name: "Twenty Twenty-Four", URI: "https://wordpress.org/themes/twentytwentyfour/", Version: "1.1"},
			score:    -50 - 25,
			category: CategoryWordPressOfficial,
		},
		{
			name:     "premium marketplace",
			theme:    ThemeInfo{Name: "Bespoke Shop", URI: "https://www.themeforest.net/item/bespoke", Version: "5.0"},
			score:    -45,
			category: CategoryPremiumMarketplace,
		},
		{
			name:     "free vendor child theme",
			theme:    ThemeInfo{Name: "Astra Child", URI: "https://wpastra.com/", IsChildTheme: true, ParentTheme: "Astra"},
			score:    -40 + 15,
			category: CategoryCustomizedTemplate,
		},
		{
			name:     "child theme without uri",
			theme:    ThemeInfo{Name: "Shop Child", IsChildTheme: true, ParentTheme: "Shop"},
			score:    45 + 40,
			category: CategoryCustomized,
			custom:   true,
		},
		{
			name:     "unknown host with early version",
			theme:    ThemeInfo{Name: "Harbor", URI: "agency.example/harbor", Version: "1.4.2"},
			score:    10 + 2,
			category: CategoryLikelyCustom,
		},
		{
			name:     "popular theme with page builder and bundled plugin",
			theme:    ThemeInfo{Name: "Kadence", URI: "https://www.kadencewp.com/kadence-theme/", Author: "Kadence WP", Version: "3.2"},
			plugins:  []ExtensionRecord{{Slug: "elementor", DisplayName: "Elementor"}, {Slug: "kadence-blocks"}},
			score:    -40 - 25 - 15 - 5,
			category: CategoryFreeMarketplace,
		},
		{
			name:     "large plugin footprint",
			theme:    ThemeInfo{Name: "Harbor", URI: "https://agency.example"},
			plugins:  manyPlugins,
			score:    10 + 5,
			category: CategoryLikelyCustom,
		},
		{
			name:     "nothing known",
			theme:    ThemeInfo{},
			score:    0,
			category: CategoryUncertain,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := Score(tc.theme, tc.plugins)
			assert.Equal(t, tc.score, v.Score)
			assert.Equal(t, tc.category, v.Category)
			assert.Equal(t, tc.custom, v.IsCustom)
			assert.Equal(t, v.ConfidencePercent >= 60, v.IsCustom)
			assert.Len(t, v.ScoringBreakdown, len(v.Indicators))
			assert.Equal(t, tc.category.Label(), v.CategoryLabel)
		})
	}
}

func TestCategoryForScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryCustomDevelopment, categoryForScore(30))
	assert.Equal(t, CategoryLikelyCustom, categoryForScore(10))
	assert.Equal(t, CategoryUncertain, categoryForScore(9))
	assert.Equal(t, CategoryUncertain, categoryForScore(-10))
	assert.Equal(t, CategoryLikelyTemplate, categoryForScore(-11))
	assert.Equal(t, CategoryLikelyTemplate, categoryForScore(-30))
	assert.Equal(t, CategoryCommercialTemplate, categoryForScore(-31))
}

func TestScoreHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "themeforest.net", uriHost("https://www.ThemeForest.net/item"))
	assert.Equal(t, "example.com", uriHost("example.com/path"))
	assert.Equal(t, "", uriHost("  "))
	assert.True(t, hostIn("themes.svn.wordpress.org", officialHosts))
	assert.False(t, hostIn("notwordpress.org", officialHosts))
	assert.True(t, isPopularTheme("hello elementor"))
	assert.True(t, isPopularTheme("twenty twenty-four"))
	assert.False(t, isPopularTheme("astral"))
	assert.False(t, isPopularTheme(""))
	assert.False(t, bundledWith("neve-pro-addon", "ne"))
	assert.True(t, bundledWith("neve-pro-addon", "neve"))

	v, ok := leadingVersion("1.9.3")
	assert.True(t, ok)
	assert.InDelta(t, 1.9, v, 0.0001)
	_, ok = leadingVersion("beta")
	assert.False(t, ok)
}
