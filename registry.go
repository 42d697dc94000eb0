package autotranslate

import (
	"fmt"

	"golang.org/x/net/html"
)

// Registry assigns stable identities to elements and text nodes of one page
// session and owns the records created for them.
//
// A Registry is not safe for concurrent use; Page serializes access to it
// together with the node tree it describes.
type Registry struct {
	handlers HandlerTable

	nextElement int
	nodes       map[string]*html.Node // identity -> element carrying it
	records     map[string]*ElementRecord
	order       []*ElementRecord

	nextText  int
	texts     map[*html.Node]*TextUnit
	textByID  map[string]*TextUnit
	textOrder []*TextUnit
}

// NewRegistry creates an empty registry using the default minimization handlers.
func NewRegistry() *Registry {
	return NewRegistryWithHandlers(DefaultHandlers)
}

// NewRegistryWithHandlers creates an empty registry with a custom handler table.
func NewRegistryWithHandlers(handlers HandlerTable) *Registry {
	return &Registry{
		handlers: handlers,
		nodes:    make(map[string]*html.Node),
		records:  make(map[string]*ElementRecord),
		texts:    make(map[*html.Node]*TextUnit),
		textByID: make(map[string]*TextUnit),
	}
}

// IdentityOf returns the identity of an element, minting one and writing it to
// the element's IdentityAttr on first sight. Non-element nodes have no identity.
func (r *Registry) IdentityOf(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}

	if id, ok := getAttr(n, IdentityAttr); ok && id != "" {
		owner, known := r.nodes[id]
		if !known {
			// Adopt markers written by an earlier session.
			r.nodes[id] = n
			return id
		}
		if owner == n {
			return id
		}
		// Copied markup carries another element's marker; give this one its own.
	}

	id := r.mint()
	r.nodes[id] = n
	setAttr(n, IdentityAttr, id)
	return id
}

func (r *Registry) mint() string {
	for {
		id := fmt.Sprintf("element%d", r.nextElement)
		r.nextElement++
		if _, taken := r.nodes[id]; !taken {
			return id
		}
	}
}

// Visit returns the record for an element, creating it on first visit.
func (r *Registry) Visit(n *html.Node) *ElementRecord {
	id := r.IdentityOf(n)
	if id == "" {
		return nil
	}
	if rec, ok := r.records[id]; ok {
		return rec
	}

	rec := newElementRecord(r, id, n)
	r.records[id] = rec
	r.order = append(r.order, rec)
	return rec
}

// Record looks up a record by identity.
func (r *Registry) Record(id string) (*ElementRecord, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Records returns every record ever created, in creation order.
func (r *Registry) Records() []*ElementRecord {
	out := make([]*ElementRecord, len(r.order))
	copy(out, r.order)
	return out
}

// TextUnitOf returns the text unit for a text node, creating it on first sight.
// Text identities are keyed by the node itself, so inserting or removing
// sibling text nodes never changes them.
func (r *Registry) TextUnitOf(n *html.Node) *TextUnit {
	if n == nil || n.Type != html.TextNode {
		return nil
	}
	if tu, ok := r.texts[n]; ok {
		return tu
	}

	tu := &TextUnit{
		id:       fmt.Sprintf("text%d", r.nextText),
		node:     n,
		original: n.Data,
	}
	r.nextText++
	r.texts[n] = tu
	r.textByID[tu.id] = tu
	r.textOrder = append(r.textOrder, tu)
	return tu
}

// TextUnit looks up a text unit by identity.
func (r *Registry) TextUnit(id string) (*TextUnit, bool) {
	tu, ok := r.textByID[id]
	return tu, ok
}

// TextUnits returns every text unit ever created, in creation order.
func (r *Registry) TextUnits() []*TextUnit {
	out := make([]*TextUnit, len(r.textOrder))
	copy(out, r.textOrder)
	return out
}

// Unit looks up an element record or text unit by identity.
func (r *Registry) Unit(id string) (Unit, bool) {
	if rec, ok := r.records[id]; ok {
		return rec, true
	}
	if tu, ok := r.textByID[id]; ok {
		return tu, true
	}
	return nil, false
}

// Units returns every record and text unit, records first.
func (r *Registry) Units() []Unit {
	out := make([]Unit, 0, len(r.order)+len(r.textOrder))
	for _, rec := range r.order {
		out = append(out, rec)
	}
	for _, tu := range r.textOrder {
		out = append(out, tu)
	}
	return out
}
