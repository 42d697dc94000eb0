package autotranslate

import (
	"strings"

	"golang.org/x/net/html"
)

// CollectTargets walks root depth-first in document order and returns the
// records of target elements. A target is collected whole; its descendants
// are not collected on their own. Elements opted out of translation
// (translate="no", data-no-translate) and elements whose content never
// reaches the model are skipped with their subtrees.
func CollectTargets(reg *Registry, root *html.Node) []*ElementRecord {
	if root == nil || root.Type != html.ElementNode {
		return nil
	}
	return collectTargets(reg, reg.Visit(root))
}

func collectTargets(reg *Registry, rec *ElementRecord) []*ElementRecord {
	n := rec.Node()
	if skipElement(reg, n) {
		return nil
	}
	if TargetTags[n.DataAtom] {
		return []*ElementRecord{rec}
	}

	var out []*ElementRecord
	for _, child := range rec.Children() {
		out = append(out, collectTargets(reg, child)...)
	}
	return out
}

// CollectTextUnits returns the non-blank text nodes inside the target
// elements under root, in document order.
func CollectTextUnits(reg *Registry, root *html.Node) []*TextUnit {
	var out []*TextUnit
	for _, rec := range CollectTargets(reg, root) {
		out = append(out, collectText(reg, rec.Node())...)
	}
	return out
}

func collectText(reg *Registry, n *html.Node) []*TextUnit {
	var out []*TextUnit
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if !isBlank(c.Data) {
				out = append(out, reg.TextUnitOf(c))
			}
		case html.ElementNode:
			if skipElement(reg, c) || reg.handlers.Lookup(c.Data) != HandleStructural {
				continue
			}
			out = append(out, collectText(reg, c)...)
		}
	}
	return out
}

func skipElement(reg *Registry, n *html.Node) bool {
	switch reg.handlers.Lookup(n.Data) {
	case HandleIgnore, HandleOpaque:
		return true
	}
	if v, ok := getAttr(n, "translate"); ok && strings.EqualFold(strings.TrimSpace(v), "no") {
		return true
	}
	if _, ok := getAttr(n, "data-no-translate"); ok {
		return true
	}
	return false
}
