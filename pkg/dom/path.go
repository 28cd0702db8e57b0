package dom

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
)

// ElementPath returns the element-child indexes leading from the document
// element (<html>) down to n. Text and comment siblings are not counted,
// matching Element.children in a browser.
func ElementPath(n *html.Node) ([]int, error) {
	if n == nil || n.Type != html.ElementNode {
		return nil, fmt.Errorf("element path requires an element node")
	}

	var path []int
	for cur := n; ; cur = cur.Parent {
		parent := cur.Parent
		if parent == nil {
			return nil, fmt.Errorf("element <%s> is detached from the document", n.Data)
		}
		if parent.Type == html.DocumentNode {
			break
		}
		path = append(path, elementIndex(cur))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// ElementIndex returns n's position among its parent's element children.
func ElementIndex(n *html.Node) int {
	return elementIndex(n)
}

func elementIndex(n *html.Node) int {
	idx := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

// OuterHTML renders n and its subtree.
func OuterHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render <%s>: %w", n.Data, err)
	}
	return buf.String(), nil
}
