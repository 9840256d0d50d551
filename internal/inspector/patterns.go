package inspector

import "regexp"

type extensionPattern struct {
	re   *regexp.Regexp
	slug string
	// builder marks page builders, which the scorer treats as template signals.
	builder bool
}

func ext(pattern, slug string) extensionPattern {
	return extensionPattern{re: regexp.MustCompile(`(?i)` + pattern), slug: slug}
}

func builderExt(pattern, slug string) extensionPattern {
	p := ext(pattern, slug)
	p.builder = true
	return p
}

// knownExtensions maps DOM, meta and inline-script fingerprints to
// WordPress.org slugs.
var knownExtensions = []extensionPattern{
	// page builders
	builderExt(`elementor`, "elementor"),
	builderExt(`vc_row|wpb_|js_composer`, "js_composer"),
	builderExt(`et_pb_|divi-builder`, "divi-builder"),
	builderExt(`fl-builder|beaver-builder`, "beaver-builder-lite-version"),
	builderExt(`fusion-builder|fusion_builder`, "fusion-builder"),
	builderExt(`brizy`, "brizy"),
	builderExt(`siteorigin-panels|panel-grid`, "siteorigin-panels"),
	builderExt(`oxygen-body|ct-section`, "oxygen"),
	builderExt(`thrive-architect|tve_editor`, "thrive-visual-editor"),

	// forms
	ext(`wpcf7|contact-form-7`, "contact-form-7"),
	ext(`gform_|gravityforms`, "gravityforms"),
	ext(`wpforms`, "wpforms-lite"),
	ext(`ninja-forms|nf-form-cont`, "ninja-forms"),
	ext(`frm_forms|formidable`, "formidable"),
	ext(`mc4wp`, "mailchimp-for-wp"),

	// seo
	ext(`yoast`, "wordpress-seo"),
	ext(`rank-math|rankmath`, "seo-by-rank-math"),
	ext(`aioseo|all-in-one-seo`, "all-in-one-seo-pack"),
	ext(`seopress`, "wp-seopress"),

	// security
	ext(`wordfence`, "wordfence"),
	ext(`sucuri`, "sucuri-scanner"),
	ext(`itsec-|ithemes-security`, "better-wp-security"),

	// caching and performance
	ext(`wp-rocket|wprocket`, "wp-rocket"),
	ext(`litespeed`, "litespeed-cache"),
	ext(`w3tc|w3-total-cache`, "w3-total-cache"),
	ext(`wp-super-cache|wpsupercache`, "wp-super-cache"),
	ext(`autoptimize`, "autoptimize"),
	ext(`wp-smush|smush`, "wp-smushit"),

	// backup
	ext(`updraft`, "updraftplus"),
	ext(`backwpup`, "backwpup"),

	// multilingual
	ext(`wpml|sitepress`, "sitepress-multilingual-cms"),
	ext(`polylang|pll_`, "polylang"),
	ext(`translatepress|trp-`, "translatepress-multilingual"),

	// analytics
	ext(`monsterinsights`, "google-analytics-for-wordpress"),
	ext(`googlesitekit|google-site-kit`, "google-site-kit"),
	ext(`jetpack`, "jetpack"),

	// e-commerce
	ext(`woocommerce`, "woocommerce"),
	ext(`edd-|easy-digital-downloads`, "easy-digital-downloads"),

	// sliders
	ext(`revslider|rev_slider|rs-module`, "revslider"),
	ext(`layerslider|ls-wp-container`, "layerslider"),
	ext(`metaslider`, "ml-slider"),
	ext(`smart-slider|n2-section-smartslider`, "smart-slider-3"),

	// gdpr and consent
	ext(`cookie-law-info|cky-consent`, "cookie-law-info"),
	ext(`cmplz|complianz`, "complianz-gdpr"),
	ext(`cookie-notice`, "cookie-notice"),
	ext(`borlabs-cookie`, "borlabs-cookie"),
}

// matchExtensions returns the slugs whose fingerprint occurs in text.
func matchExtensions(text string) []string {
	if text == "" {
		return nil
	}
	var slugs []string
	for _, p := range knownExtensions {
		if p.re.MatchString(text) {
			slugs = append(slugs, p.slug)
		}
	}
	return slugs
}

var pageBuilderSlugs = func() map[string]bool {
	m := make(map[string]bool)
	for _, p := range knownExtensions {
		if p.builder {
			m[p.slug] = true
		}
	}
	m["elementor-pro"] = true
	m["beaver-builder"] = true
	m["bb-plugin"] = true
	return m
}()

// IsPageBuilder reports whether slug names a visual page builder.
func IsPageBuilder(slug string) bool {
	return pageBuilderSlugs[slug]
}
