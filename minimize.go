package autotranslate

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Handling is how the minimizer treats an element of a given tag.
type Handling int

const (
	// HandleStructural keeps the tag as a placeholder pair and recurses into its children.
	HandleStructural Handling = iota
	// HandleTerminal emits an empty placeholder; the element has nothing to translate.
	HandleTerminal
	// HandleOpaque emits an empty placeholder; its children are set aside and restored verbatim.
	HandleOpaque
	// HandleIgnore emits nothing at all.
	HandleIgnore
)

// HandlerTable maps lowercase tag names to their handling. Tags not present
// are structural.
type HandlerTable map[string]Handling

// DefaultHandlers is the handler table used by NewRegistry.
var DefaultHandlers = HandlerTable{
	"img":      HandleTerminal,
	"br":       HandleTerminal,
	"hr":       HandleTerminal,
	"wbr":      HandleTerminal,
	"input":    HandleTerminal,
	"script":   HandleIgnore,
	"style":    HandleOpaque,
	"code":     HandleOpaque,
	"pre":      HandleOpaque,
	"textarea": HandleOpaque,
	"noscript": HandleOpaque,
	"template": HandleOpaque,
	"svg":      HandleOpaque,
	"math":     HandleOpaque,
}

// Lookup returns the handling for a tag.
func (t HandlerTable) Lookup(tag string) Handling {
	if h, ok := t[strings.ToLower(tag)]; ok {
		return h
	}
	return HandleStructural
}

// With returns a copy of the table with one tag's handling overridden.
func (t HandlerTable) With(tag string, h Handling) HandlerTable {
	out := make(HandlerTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[strings.ToLower(tag)] = h
	return out
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// placeholder is what a relative id stands for.
type placeholder struct {
	tag    string
	attrs  []html.Attribute
	inner  string // children of opaque elements
	opaque bool
}

// Minimization is the result of one minimization pass over a subtree: the
// compact content plus the side table pairing relative ids with the original
// attributes of the elements they replace.
type Minimization struct {
	Content      string
	placeholders map[string]placeholder
	handlers     HandlerTable
}

// Attributes returns the original attributes recorded for a relative id.
func (m *Minimization) Attributes(rid string) ([]html.Attribute, bool) {
	p, ok := m.placeholders[rid]
	if !ok {
		return nil, false
	}
	return cloneAttrs(p.attrs), true
}

// Len returns the number of placeholders assigned in the pass.
func (m *Minimization) Len() int {
	return len(m.placeholders)
}

// minimizeContext carries the state of one pass; relative ids start at zero.
type minimizeContext struct {
	handlers     HandlerTable
	next         int
	placeholders map[string]placeholder
	b            strings.Builder
}

// Minimize serializes nodes into placeholder-tagged content. Text is emitted
// verbatim (whitespace included); every emitted element carries only its
// relative id.
func Minimize(nodes []*html.Node, handlers HandlerTable) *Minimization {
	mc := &minimizeContext{
		handlers:     handlers,
		placeholders: make(map[string]placeholder),
	}
	for _, n := range nodes {
		mc.node(n)
	}
	return &Minimization{
		Content:      mc.b.String(),
		placeholders: mc.placeholders,
		handlers:     handlers,
	}
}

// MinimizeChildren minimizes the children of n.
func MinimizeChildren(n *html.Node, handlers HandlerTable) *Minimization {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return Minimize(nodes, handlers)
}

func (mc *minimizeContext) assign(n *html.Node, p placeholder) string {
	rid := strconv.Itoa(mc.next)
	mc.next++
	p.tag = tagName(n)
	p.attrs = cloneAttrs(n.Attr)
	mc.placeholders[rid] = p
	return rid
}

func (mc *minimizeContext) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		mc.b.WriteString(escapeText(n.Data))
	case html.ElementNode:
		mc.element(n)
	}
	// Comments and other node types carry nothing to translate.
}

func (mc *minimizeContext) element(n *html.Node) {
	tag := tagName(n)

	switch mc.handlers.Lookup(tag) {
	case HandleIgnore:
		return
	case HandleTerminal:
		rid := mc.assign(n, placeholder{})
		if voidElements[tag] {
			fmt.Fprintf(&mc.b, `<%s %s="%s"/>`, tag, RelativeIDAttr, rid)
		} else {
			fmt.Fprintf(&mc.b, `<%s %s="%s"></%s>`, tag, RelativeIDAttr, rid, tag)
		}
	case HandleOpaque:
		rid := mc.assign(n, placeholder{inner: innerHTML(n), opaque: true})
		fmt.Fprintf(&mc.b, `<%s %s="%s"></%s>`, tag, RelativeIDAttr, rid, tag)
	default:
		rid := mc.assign(n, placeholder{})
		fmt.Fprintf(&mc.b, `<%s %s="%s">`, tag, RelativeIDAttr, rid)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			mc.node(c)
		}
		fmt.Fprintf(&mc.b, `</%s>`, tag)
	}
}

// Restore parses translated minimized content as the content of an element
// shaped like context and rebuilds every placeholder's original attributes.
// Attributes present in the translated content are never kept: placeholders
// get exactly their recorded set, and elements introduced by the model lose
// all of theirs. Ignored elements introduced by the model are dropped.
func (m *Minimization) Restore(context *html.Node, translated string) (string, error) {
	nodes, err := parseInner(context, translated)
	if err != nil {
		return "", fmt.Errorf("parsing translated content: %w", err)
	}

	kept := nodes[:0]
	for _, n := range nodes {
		keep, err := m.restoreNode(n)
		if err != nil {
			return "", err
		}
		if keep {
			kept = append(kept, n)
		}
	}

	return renderNodes(kept), nil
}

func (m *Minimization) restoreNode(n *html.Node) (bool, error) {
	if n.Type != html.ElementNode {
		return true, nil
	}

	if rid, ok := getAttr(n, RelativeIDAttr); ok {
		p, known := m.placeholders[rid]
		if !known {
			return false, fmt.Errorf("unknown relative id %q on <%s>", rid, n.Data)
		}
		if p.tag != tagName(n) {
			return false, fmt.Errorf("relative id %q moved from <%s> to <%s>", rid, p.tag, n.Data)
		}
		n.Attr = cloneAttrs(p.attrs)
		if p.opaque {
			children, err := parseInner(n, p.inner)
			if err != nil {
				return false, fmt.Errorf("restoring <%s> content: %w", p.tag, err)
			}
			replaceChildren(n, children)
			return true, nil
		}
	} else {
		if m.handlers.Lookup(n.Data) == HandleIgnore {
			return false, nil
		}
		n.Attr = nil
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		keep, err := m.restoreNode(c)
		if err != nil {
			return false, err
		}
		if !keep {
			n.RemoveChild(c)
		}
		c = next
	}
	return true, nil
}
