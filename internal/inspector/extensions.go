package inspector

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Evidence labels for non-asset detection passes.
const (
	EvidenceHTMLComment    = "HTML comment"
	EvidenceHTMLAttributes = "HTML attributes"
	EvidenceRESTAPI        = "REST API"
	EvidenceMetaTag        = "meta tag"
	EvidenceInlineScript   = "inline script"
)

const registryPageURL = "https://wordpress.org/plugins/"

var (
	pluginAssetPattern   = regexp.MustCompile(`/wp-content/(?:mu-)?plugins/([^/?#"'\s]+)/`)
	pluginCommentPattern = regexp.MustCompile(`wp-content/(?:mu-)?plugins/([^/?#"'\s>]+)`)
	validSlugPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// extensionSet is an insertion-ordered map keyed by slug.
type extensionSet struct {
	order   []string
	records map[string]*ExtensionRecord
}

func newExtensionSet() *extensionSet {
	return &extensionSet{records: make(map[string]*ExtensionRecord)}
}

// add records evidence for slug. The first pass to see a slug fixes its
// display name; later passes only append evidence they have not added yet.
func (s *extensionSet) add(slug, displayName, evidence string) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !validSlugPattern.MatchString(slug) {
		return
	}
	rec, ok := s.records[slug]
	if !ok {
		if displayName == "" {
			displayName = HumanizeSlug(slug)
		}
		rec = &ExtensionRecord{
			Slug:        slug,
			DisplayName: displayName,
			RegistryURL: registryPageURL + slug + "/",
		}
		s.records[slug] = rec
		s.order = append(s.order, slug)
	}
	if evidence != "" && !slices.Contains(rec.DetectedFiles, evidence) {
		rec.DetectedFiles = append(rec.DetectedFiles, evidence)
	}
}

func (s *extensionSet) list() []ExtensionRecord {
	out := make([]ExtensionRecord, 0, len(s.order))
	for _, slug := range s.order {
		rec := *s.records[slug]
		if rec.DetectedFiles == nil {
			rec.DetectedFiles = []string{}
		}
		out = append(out, rec)
	}
	return out
}

// HumanizeSlug turns "contact-form-7" into "Contact Form 7".
func HumanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func (in *Inspector) resolveExtensions(ctx context.Context, p *page) []ExtensionRecord {
	set := newExtensionSet()

	for _, ref := range p.assetRefs() {
		if m := pluginAssetPattern.FindStringSubmatch(ref); m != nil {
			set.add(m[1], "", p.resolve(ref))
		}
	}

	for _, comment := range p.comments {
		for _, m := range pluginCommentPattern.FindAllStringSubmatch(comment, -1) {
			set.add(m[1], "", EvidenceHTMLComment)
		}
	}

	p.doc.Find("[class], [id], [data-plugin]").Each(func(_ int, el *goquery.Selection) {
		class, _ := el.Attr("class")
		id, _ := el.Attr("id")
		plugin, _ := el.Attr("data-plugin")
		for _, slug := range matchExtensions(strings.Join([]string{class, id, plugin}, " ")) {
			set.add(slug, "", EvidenceHTMLAttributes)
		}
	})

	in.extensionsFromREST(ctx, p, set)

	for _, m := range p.meta {
		for _, slug := range matchExtensions(m.Content) {
			set.add(slug, "", EvidenceMetaTag)
		}
	}

	for _, script := range p.inlineScripts {
		for _, slug := range matchExtensions(script) {
			set.add(slug, "", EvidenceInlineScript)
		}
	}

	records := set.list()
	in.enrich(ctx, records)
	return records
}

type restPlugin struct {
	Plugin string       `json:"plugin"`
	Name   renderedText `json:"name"`
}

func (in *Inspector) extensionsFromREST(ctx context.Context, p *page, set *extensionSet) {
	resp, err := in.get(ctx, "plugin_listing", p.origin()+"/wp-json/wp/v2/plugins", http.StatusInternalServerError)
	if err != nil || resp.StatusCode != http.StatusOK {
		return
	}
	plugins, err := decodeListing[restPlugin](resp.Body)
	if err != nil {
		in.logger.Debug("plugin listing decode failed", zap.Error(err))
		return
	}
	for _, pl := range plugins {
		slug, _, _ := strings.Cut(pl.Plugin, "/")
		set.add(slug, strings.TrimSpace(string(pl.Name)), EvidenceRESTAPI)
	}
}
