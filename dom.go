package autotranslate

import (
	"strings"

	"golang.org/x/net/html"
)

// innerHTML serializes the children of n.
func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// renderNodes serializes a detached node list.
func renderNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, c := range nodes {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// parseInner parses markup as the content of an element shaped like n.
// The returned nodes are detached.
func parseInner(n *html.Node, markup string) ([]*html.Node, error) {
	context := &html.Node{
		Type:      html.ElementNode,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	return html.ParseFragment(strings.NewReader(markup), context)
}

// setInnerHTML replaces the children of n with the parsed markup.
func setInnerHTML(n *html.Node, markup string) error {
	nodes, err := parseInner(n, markup)
	if err != nil {
		return err
	}
	replaceChildren(n, nodes)
	return nil
}

func replaceChildren(n *html.Node, nodes []*html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		n.AppendChild(c)
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func cloneAttrs(attrs []html.Attribute) []html.Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// tagName returns the lowercase tag classification of an element.
func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText escapes only what would otherwise be read back as markup.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
