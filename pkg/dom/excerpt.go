package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var (
	skippedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "template")
	blockElements   = set("html", "head", "body", "div", "p", "section", "article", "header", "footer",
		"nav", "main", "aside", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li",
		"table", "tr", "td", "th", "form", "fieldset", "blockquote", "pre")
	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link",
		"meta", "param", "source", "track", "wbr")
	globalAttributes = set("id", "class", "role", "title", "hidden", "style", "aria-label", "aria-hidden")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// Excerpt renders n's subtree as indented HTML for display. Scripts, styles
// and comments are dropped and only the attributes that matter for locating
// elements are kept. Rendering stops once maxLength characters have been
// written; the second result reports whether that happened.
func Excerpt(n *html.Node, maxLength int) (string, bool) {
	e := &excerpter{max: maxLength}
	truncated := e.node(n, 0)
	return strings.TrimSpace(e.b.String()), truncated
}

type excerpter struct {
	b      strings.Builder
	length int
	max    int
}

// node writes n and reports whether the length limit was hit.
func (e *excerpter) node(n *html.Node, depth int) bool {
	if e.length >= e.max {
		return true
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return false
	case html.TextNode:
		return e.text(n.Data)
	case html.ElementNode:
		if skippedElements[n.Data] {
			return false
		}
		return e.element(n, depth)
	default:
		return e.children(n, depth)
	}
}

func (e *excerpter) text(s string) bool {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return false
	}
	if e.length+len(s) > e.max {
		s = s[:e.max-e.length] + "..."
		e.b.WriteString(s)
		e.length = e.max
		return true
	}
	e.b.WriteString(s)
	e.length += len(s)
	return false
}

func (e *excerpter) element(n *html.Node, depth int) bool {
	tag := n.Data
	block := blockElements[tag]
	if block && depth > 0 {
		e.indent(depth)
	}

	e.b.WriteString("<" + tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, attr.Key) {
			fmt.Fprintf(&e.b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	e.b.WriteString(">")
	e.length += len(tag) + 2

	truncated := e.children(n, depth+1)
	if voidElements[tag] {
		return truncated
	}

	if block {
		e.indent(depth)
	}
	e.b.WriteString("</" + tag + ">")
	e.length += len(tag) + 3
	return truncated
}

func (e *excerpter) children(n *html.Node, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e.node(c, depth) {
			return true
		}
	}
	return false
}

func (e *excerpter) indent(depth int) {
	e.b.WriteString("\n")
	e.b.WriteString(strings.Repeat("  ", depth))
}

func keepAttribute(tag, key string) bool {
	key = strings.ToLower(key)
	if globalAttributes[key] || strings.HasPrefix(key, "data-") {
		return true
	}
	switch tag {
	case "a":
		return key == "href"
	case "img":
		return key == "src" || key == "alt"
	case "input", "textarea", "select":
		return key == "name" || key == "type" || key == "value"
	case "button":
		return key == "type"
	}
	return false
}

// Title returns the trimmed text of the document's first <title>.
func Title(doc *html.Node) string {
	if n, ok := First(Wrap(doc), "title"); ok {
		return strings.TrimSpace(n.Text())
	}
	return ""
}
