// Package page turns a fetched documentation page into plain text suitable
// for a language model prompt.
package page

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the readable part of a page.
type Document struct {
	Title string
	Text  string
}

// boilerplate lists selectors removed before text is collected.
var boilerplate = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	"[class*=cookie]", "[id*=cookie]", "[class*=consent]",
	"[class*=sidebar]", "[class*=breadcrumb]",
	".headerlink",
}

// contentRoots are tried in order; the first match is the content root.
var contentRoots = []string{
	"main", "article", "[role=main]", ".documentation-content", ".document", ".body", "body",
}

// FromHTML extracts a title and readable text from HTML. Headings, paragraphs,
// list items and code blocks stay on their own lines; code keeps its layout.
func FromHTML(input []byte) Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Document{}
	}
	title := strings.TrimSpace(doc.Find("head > title").First().Text())
	if title == "" {
		title = collapseSpaces(strings.TrimSpace(doc.Find("h1").First().Text()))
	}
	doc.Find(strings.Join(boilerplate, ", ")).Remove()

	var root *goquery.Selection
	for _, sel := range contentRoots {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	var b strings.Builder
	if root != nil {
		for _, n := range root.Nodes {
			collectText(&b, n, false)
		}
	}
	return Document{Title: title, Text: normalizeWhitespace(b.String())}
}

// Truncate cuts text to at most maxChars runes, preferring a line boundary.
// A non-positive maxChars returns text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	cut := string(r[:maxChars])
	if i := strings.LastIndex(cut, "\n"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n")
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "pre":
			inPre = true
			b.WriteString("\n")
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "dl", "table":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(data)
		}
		b.WriteString(data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "table":
			b.WriteString("\n\n")
		case "li", "dt", "dd", "tr":
			b.WriteString("\n")
		case "td", "th":
			b.WriteString(" ")
		}
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
