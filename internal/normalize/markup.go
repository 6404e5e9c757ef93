package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&amp;", "&",
)

// DecodeEntities decodes the five standard HTML entities. Anything else is
// left as-is.
func DecodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// StripMarkup removes nested markup from an HTML fragment and returns its
// text with whitespace collapsed. Script and style bodies are dropped.
// Fragments that contain no tags only get their entities decoded.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return clean(DecodeEntities(s))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return clean(DecodeEntities(s))
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelectors).AfterHtml(" ")

	return clean(doc.Find("body").Text())
}

// blockSelectors separate words that would otherwise run together once the
// tags around them are gone ("<li>a</li><li>b</li>").
const blockSelectors = "br, p, div, li, tr, td, h1, h2, h3, h4, h5, h6"
