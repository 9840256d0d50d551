package inspector

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlCommentPattern = regexp.MustCompile(`(?s)<!--(.*?)-->`)

// MetaTag is a meta element that carries a content attribute.
type MetaTag struct {
	Name     string `json:"name,omitempty"`
	Property string `json:"property,omitempty"`
	Content  string `json:"content"`
}

// page is the parsed snapshot of one fetched document. Everything the
// resolvers need is extracted once here so each pass stays a plain scan.
type page struct {
	base  *url.URL
	raw   string
	lower string
	doc   *goquery.Document

	stylesheets   []string
	scripts       []string
	inlineScripts []string
	comments      []string
	meta          []MetaTag
	bodyClass     string
	title         string
}

func newPage(base *url.URL, body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	raw := string(body)
	p := &page{
		base:  base,
		raw:   raw,
		lower: strings.ToLower(raw),
		doc:   doc,
	}

	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		for _, token := range strings.Fields(rel) {
			if strings.EqualFold(token, "stylesheet") {
				href, _ := s.Attr("href")
				p.stylesheets = append(p.stylesheets, strings.TrimSpace(href))
				return
			}
		}
	})
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			p.scripts = append(p.scripts, strings.TrimSpace(src))
			return
		}
		if text := s.Text(); strings.TrimSpace(text) != "" {
			p.inlineScripts = append(p.inlineScripts, text)
		}
	})
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		p.meta = append(p.meta, MetaTag{Name: name, Property: property, Content: content})
	})
	p.bodyClass, _ = doc.Find("body").First().Attr("class")
	p.title = strings.TrimSpace(doc.Find("title").First().Text())

	for _, m := range htmlCommentPattern.FindAllStringSubmatch(raw, -1) {
		p.comments = append(p.comments, m[1])
	}
	return p, nil
}

// metaContent returns the content of the first meta tag whose name or
// property equals key, case-insensitively.
func (p *page) metaContent(key string) string {
	for _, m := range p.meta {
		if strings.EqualFold(m.Name, key) || strings.EqualFold(m.Property, key) {
			return m.Content
		}
	}
	return ""
}

// resolve turns a document reference into an absolute URL. Unparseable
// references are returned unchanged.
func (p *page) resolve(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

// origin returns scheme://host of the page.
func (p *page) origin() string {
	return p.base.Scheme + "://" + p.base.Host
}

func (p *page) siteName() string {
	if name := strings.TrimSpace(p.metaContent("og:site_name")); name != "" {
		return name
	}
	return p.title
}

// assetRefs returns stylesheet hrefs followed by script srcs.
func (p *page) assetRefs() []string {
	refs := make([]string, 0, len(p.stylesheets)+len(p.scripts))
	refs = append(refs, p.stylesheets...)
	return append(refs, p.scripts...)
}
