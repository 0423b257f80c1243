package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true, "head": true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "tr": true, "ul": true, "button": true, "td": true,
}

// InnerText renders the selection roughly the way a browser's innerText does:
// block elements start new lines, scripts and styles are dropped, runs of
// whitespace collapse. goquery's Text() glues sibling blocks together, which
// produces exactly the concatenation artifacts the validators reject.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
		b.WriteByte('\n')
	}
	return tidyLines(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = CleanText(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// CleanText trims and collapses all internal whitespace to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the selection's inner text flattened onto one line.
func Text(sel *goquery.Selection) string {
	return CleanText(InnerText(sel))
}

// PageText returns the body's inner text, one block per line.
func PageText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return InnerText(doc.Selection)
	}
	return InnerText(body)
}

// Chrome is the selector for page furniture that never holds profile data.
const Chrome = "header, nav, footer, [role=navigation], [role=banner], [role=contentinfo]"

// InChrome reports whether the selection sits inside page furniture.
func InChrome(sel *goquery.Selection) bool {
	return sel.Closest(Chrome).Length() > 0
}
