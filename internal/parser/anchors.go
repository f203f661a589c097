// Package parser extracts anchor elements from HTML documents.
// It backs the DOM-based link matcher with a real HTML parse instead of
// text searching.
package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// Anchor is one <a> element with an href attribute.
type Anchor struct {
	Href string
	Rel  string
	Text string
}

// ExtractAnchors parses htmlContent and returns every anchor carrying an
// href, in document order. Parse errors on broken markup are absorbed by
// the tolerant parser; only unreadable input returns an error.
func ExtractAnchors(htmlContent string) ([]Anchor, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var anchors []Anchor
	traverse(doc, &anchors)
	return anchors, nil
}

func traverse(n *html.Node, anchors *[]Anchor) {
	if n.Type == html.ElementNode && n.Data == "a" {
		if a, ok := parseAnchor(n); ok {
			*anchors = append(*anchors, a)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverse(c, anchors)
	}
}

func parseAnchor(n *html.Node) (Anchor, bool) {
	var a Anchor
	for _, attr := range n.Attr {
		switch attr.Key {
		case "href":
			a.Href = attr.Val
		case "rel":
			a.Rel = attr.Val
		}
	}
	if a.Href == "" {
		return Anchor{}, false
	}
	a.Text = strings.TrimSpace(extractText(n))
	return a, true
}

// extractText recursively collects the text content of a node.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// HasRelToken reports whether a space-separated rel attribute value
// contains the given token, case-insensitive.
func HasRelToken(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}
