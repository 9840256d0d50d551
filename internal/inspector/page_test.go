package inspector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageExtractsAssets(t *testing.T) {
	t.Parallel()

	p := mustPage(t, "https://news.example/blog/", `<!doctype html>
<html><head>
<title> Daily News </title>
<meta name="Generator" content="WordPress 6.5">
<meta property="og:site_name" content="The Daily">
<meta name="viewport">
<link rel="preload stylesheet" href=" /wp-content/themes/neve/style.css ">
<link rel="icon" href="/favicon.ico">
<script src="/wp-includes/js/wp-embed.min.js"></script>
<script>var wpcf7 = {};</script>
<script>   </script>
<!-- cached by wp-super-cache -->
</head><body class="home blog"><!--footer--></body></html>`)

	assert.Equal(t, []string{"/wp-content/themes/neve/style.css"}, p.stylesheets)
	assert.Equal(t, []string{"/wp-includes/js/wp-embed.min.js"}, p.scripts)
	assert.Equal(t, []string{"var wpcf7 = {};"}, p.inlineScripts)
	assert.Equal(t, []string{" cached by wp-super-cache ", "footer"}, p.comments)
	assert.Len(t, p.meta, 2)
	assert.Equal(t, "WordPress 6.5", p.metaContent("generator"))
	assert.Equal(t, "home blog", p.bodyClass)
	assert.Equal(t, "The Daily", p.siteName())
	assert.Equal(t, "https://news.example", p.origin())
	assert.Equal(t, "https://news.example/wp-content/themes/neve/style.css", p.resolve("/wp-content/themes/neve/style.css"))
	assert.Equal(t, "https://news.example/blog/app.js", p.resolve("app.js"))
}

func TestSiteNameFallsBackToTitle(t *testing.T) {
	t.Parallel()

	p := mustPage(t, "https://a.example/", `<html><head><title>Only Title</title></head></html>`)
	assert.Equal(t, "Only Title", p.siteName())
}
