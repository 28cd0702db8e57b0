package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// First returns the first element under root matching selector.
func First(root *goquery.Selection, selector string) (*goquery.Selection, bool) {
	if root == nil {
		return nil, false
	}
	found := root.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return found, true
}

// FirstVisible returns the first visible element under root matching selector.
func FirstVisible(root *goquery.Selection, selector string) (*goquery.Selection, bool) {
	if root == nil {
		return nil, false
	}
	var match *goquery.Selection
	root.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if Visible(s) {
			match = s
			return false
		}
		return true
	})
	return match, match != nil
}

// All returns every element under root matching selector, in document order.
func All(root *goquery.Selection, selector string) *goquery.Selection {
	if root == nil {
		return &goquery.Selection{}
	}
	return root.Find(selector)
}

// Matches reports whether any element under root matches selector.
func Matches(root *goquery.Selection, selector string) bool {
	_, ok := First(root, selector)
	return ok
}

// FindTextNode returns the first non-blank direct text child of the first
// element matching selector.
func FindTextNode(root *goquery.Selection, selector string) (*html.Node, bool) {
	el, ok := First(root, selector)
	if !ok {
		return nil, false
	}
	for c := el.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return c, true
		}
	}
	return nil, false
}

// LeadingText returns the text of the element's first child node, or the
// element's full text when it has no children. Titles that carry trailing
// badges or edit links keep the real title in the first child.
func LeadingText(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	n := s.Nodes[0]
	if n.FirstChild == nil {
		return s.Text()
	}
	if n.FirstChild.Type == html.TextNode {
		return n.FirstChild.Data
	}
	return goquery.NewDocumentFromNode(n.FirstChild).Text()
}

// Value returns the current value of a form control: the text of a
// textarea, the value attribute of anything else.
func Value(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	if goquery.NodeName(s) == "textarea" {
		return s.Text()
	}
	v, _ := s.Attr("value")
	return v
}

// Visible reports whether the element would be rendered: neither it nor
// any ancestor is hidden by attribute, inline style or a hiding class.
func Visible(s *goquery.Selection) bool {
	if s == nil || s.Length() == 0 {
		return false
	}
	for n := s.Nodes[0]; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hiddenNode(n) {
			return false
		}
	}
	return true
}

func hiddenNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(attr.Val, "true") {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(attr.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				if class == "hidden" || class == "d-none" {
					return true
				}
			}
		}
	}
	return false
}

// Wrap returns a selection holding the single node n.
func Wrap(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// Attached reports whether n has been inserted under some parent.
func Attached(n *html.Node) bool {
	return n != nil && n.Parent != nil
}
