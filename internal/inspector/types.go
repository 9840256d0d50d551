// Package inspector decides whether a page is built on WordPress and profiles
// its active theme, installed plugins and how customized the build looks.
package inspector

import "time"

// Signals is the fixed set of weak WordPress markers computed for a page.
// Every field is always present; a skipped or failed check stays false.
type Signals struct {
	HasContentPath          bool `json:"hasContentPath"`
	HasIncludesPath         bool `json:"hasIncludesPath"`
	MetaGeneratorMatch      bool `json:"metaGeneratorMatch"`
	MetaKeywordsMatch       bool `json:"metaKeywordsMatch"`
	BodyClassMatch          bool `json:"bodyClassMatch"`
	HasAdminAjaxRef         bool `json:"hasAdminAjaxRef"`
	HasEmojiScriptRef       bool `json:"hasEmojiScriptRef"`
	HasXMLRPCRef            bool `json:"hasXmlrpcRef"`
	HasCustomStructureMatch bool `json:"hasCustomStructureMatch"`
	HasBundledAssetRef      bool `json:"hasBundledAssetRef"`
	RESTEndpointReachable   bool `json:"restEndpointReachable"`
}

// Count returns how many signals fired.
func (s Signals) Count() int {
	n := 0
	for _, v := range []bool{
		s.HasContentPath,
		s.HasIncludesPath,
		s.MetaGeneratorMatch,
		s.MetaKeywordsMatch,
		s.BodyClassMatch,
		s.HasAdminAjaxRef,
		s.HasEmojiScriptRef,
		s.HasXMLRPCRef,
		s.HasCustomStructureMatch,
		s.HasBundledAssetRef,
		s.RESTEndpointReachable,
	} {
		if v {
			n++
		}
	}
	return n
}

// ThemeInfo describes the active theme as far as it could be resolved.
type ThemeInfo struct {
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
	Author        string `json:"author,omitempty"`
	URI           string `json:"uri,omitempty"`
	Description   string `json:"description,omitempty"`
	StylesheetURL string `json:"stylesheetUrl,omitempty"`
	IsChildTheme  bool   `json:"isChildTheme"`
	ParentTheme   string `json:"parentTheme,omitempty"`
	DetectedFrom  string `json:"detectedFrom,omitempty"`
}

// RegistryInfo is the optional WordPress.org enrichment for a plugin.
type RegistryInfo struct {
	Name           string            `json:"name,omitempty"`
	Version        string            `json:"version,omitempty"`
	Author         string            `json:"author,omitempty"`
	Description    string            `json:"description,omitempty"`
	Rating         float64           `json:"rating"`
	ActiveInstalls int               `json:"activeInstalls"`
	LastUpdated    string            `json:"lastUpdated,omitempty"`
	Requires       string            `json:"requires,omitempty"`
	TestedUpTo     string            `json:"testedUpTo,omitempty"`
	RequiresPHP    string            `json:"requiresPhp,omitempty"`
	Icons          map[string]string `json:"icons,omitempty"`
}

// ExtensionRecord is one detected plugin. Slug is the dedup key.
type ExtensionRecord struct {
	Slug          string        `json:"slug"`
	DisplayName   string        `json:"displayName"`
	DetectedFiles []string      `json:"detectedFiles"`
	RegistryURL   string        `json:"registryUrl"`
	RegistryInfo  *RegistryInfo `json:"registryInfo"`
}

// WeightClass groups scoring rules by strength.
type WeightClass string

// Weight classes used in the scoring breakdown.
const (
	WeightStrong   WeightClass = "strong"
	WeightModerate WeightClass = "moderate"
	WeightLight    WeightClass = "light"
)

// Category classifies how a site was built.
type Category string

// Categories assigned by rules or derived from the score.
const (
	CategoryNone               Category = ""
	CategoryWordPressOfficial  Category = "wordpress-official"
	CategoryPremiumMarketplace Category = "premium-marketplace"
	CategoryFreeMarketplace    Category = "free-marketplace"
	CategoryCustomizedTemplate Category = "customized-template"
	CategoryCustomized         Category = "customized"
	CategoryPopularTemplate    Category = "popular-template"
	CategoryCustomDevelopment  Category = "custom-development"
	CategoryLikelyCustom       Category = "likely-custom"
	CategoryUncertain          Category = "uncertain"
	CategoryLikelyTemplate     Category = "likely-template"
	CategoryCommercialTemplate Category = "commercial-template"
)

var categoryLabels = map[Category]string{
	CategoryWordPressOfficial:  "Official WordPress.org theme",
	CategoryPremiumMarketplace: "Premium marketplace theme",
	CategoryFreeMarketplace:    "Free or freemium theme vendor",
	CategoryCustomizedTemplate: "Customized template (child theme)",
	CategoryCustomized:         "Customized child theme",
	CategoryPopularTemplate:    "Popular template",
	CategoryCustomDevelopment:  "Custom development",
	CategoryLikelyCustom:       "Likely custom",
	CategoryUncertain:          "Uncertain",
	CategoryLikelyTemplate:     "Likely template",
	CategoryCommercialTemplate: "Commercial template",
}

// Label returns the display string for the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// ScoreEntry records one fired rule.
type ScoreEntry struct {
	Indicator   string      `json:"indicator"`
	PointsDelta int         `json:"pointsDelta"`
	WeightClass WeightClass `json:"weightClass"`
}

// CustomizationVerdict is the scorer output.
type CustomizationVerdict struct {
	Score             int          `json:"score"`
	ConfidencePercent int          `json:"confidencePercent"`
	IsCustom          bool         `json:"isCustom"`
	Category          Category     `json:"category"`
	CategoryLabel     string       `json:"categoryLabel"`
	Indicators        []string     `json:"indicators"`
	ScoringBreakdown  []ScoreEntry `json:"scoringBreakdown"`
}

// PluginSummary wraps the detected plugin list for the response.
type PluginSummary struct {
	Count int               `json:"count"`
	List  []ExtensionRecord `json:"list"`
}

// Report is the inspection result. Non-WordPress sites only carry URL,
// IsWordPress, Message and Signals.
type Report struct {
	URL              string                `json:"url"`
	SiteName         string                `json:"siteName,omitempty"`
	IsWordPress      bool                  `json:"isWordPress"`
	Message          string                `json:"message,omitempty"`
	Signals          *Signals              `json:"signals,omitempty"`
	ScannedAt        *time.Time            `json:"scannedAt,omitempty"`
	Theme            *ThemeInfo            `json:"theme,omitempty"`
	Plugins          *PluginSummary        `json:"plugins,omitempty"`
	Customization    *CustomizationVerdict `json:"customization,omitempty"`
	DetectionSignals *Signals              `json:"detectionSignals,omitempty"`
}
