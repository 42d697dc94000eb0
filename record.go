package autotranslate

import "golang.org/x/net/html"

// ElementRecord is the visitor of one element: its identity, tag, original
// content snapshot and translation. Records are shared by everyone looking up
// the same identity and change only through their own methods.
type ElementRecord struct {
	registry *Registry
	id       string
	node     *html.Node
	tagName  string

	originalContent string
	minimization    *Minimization // computed on first use

	translatedContent string
	hasTranslation    bool

	// rendered is the content this record last wrote into the element;
	// it starts as the original content.
	rendered string
}

func newElementRecord(r *Registry, id string, n *html.Node) *ElementRecord {
	orig := innerHTML(n)
	return &ElementRecord{
		registry:        r,
		id:              id,
		node:            n,
		tagName:         tagName(n),
		originalContent: orig,
		rendered:        orig,
	}
}

func (e *ElementRecord) ID() string { return e.id }

// Node returns the element this record describes.
func (e *ElementRecord) Node() *html.Node { return e.node }

func (e *ElementRecord) TagName() string { return e.tagName }

// Children returns records for the element's current element children.
func (e *ElementRecord) Children() []*ElementRecord {
	var out []*ElementRecord
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.registry.Visit(c))
		}
	}
	return out
}

// OriginalContent returns the inner markup captured at first visit.
func (e *ElementRecord) OriginalContent() string { return e.originalContent }

// OriginalContentMinimized returns the minimized form of the original
// content. It is computed once.
func (e *ElementRecord) OriginalContentMinimized() string {
	return e.minimized().Content
}

// InvalidateMinimized drops the memoized minimization so the next call
// recomputes it.
func (e *ElementRecord) InvalidateMinimized() {
	e.minimization = nil
}

func (e *ElementRecord) minimized() *Minimization {
	if e.minimization != nil {
		return e.minimization
	}
	nodes, err := parseInner(e.node, e.originalContent)
	if err != nil {
		// The snapshot was rendered by us; fall back to the live children.
		e.minimization = MinimizeChildren(e.node, e.registry.handlers)
		return e.minimization
	}
	e.minimization = Minimize(nodes, e.registry.handlers)
	return e.minimization
}

// RelativeAttributes returns the original attributes recorded for a relative
// id of this record's minimization.
func (e *ElementRecord) RelativeAttributes(rid string) ([]html.Attribute, bool) {
	return e.minimized().Attributes(rid)
}

// TranslatedContent returns the restored translation and whether one was ever set.
func (e *ElementRecord) TranslatedContent() (string, bool) {
	return e.translatedContent, e.hasTranslation
}

// SetTranslatedContent restores minimized translated content against this
// record's placeholders and stores the result. On error the record is unchanged.
func (e *ElementRecord) SetTranslatedContent(minimized string) error {
	restored, err := e.minimized().Restore(e.node, minimized)
	if err != nil {
		return &MarkupError{UnitID: e.id, Message: "cannot restore translated content", Cause: err}
	}
	e.translatedContent = restored
	e.hasTranslation = true
	return nil
}

// Content implements Unit with the minimized original content.
func (e *ElementRecord) Content() string { return e.OriginalContentMinimized() }

// SetTranslation implements Unit.
func (e *ElementRecord) SetTranslation(translated string) error {
	return e.SetTranslatedContent(translated)
}

// DisplayOriginal puts the original content back into the element. Records
// that never showed a translation are left alone, so their descendants keep
// their identity.
func (e *ElementRecord) DisplayOriginal() {
	e.render(e.originalContent)
}

// DisplayTranslated shows the translation. It does nothing if no translation
// was ever set.
func (e *ElementRecord) DisplayTranslated() {
	if !e.hasTranslation {
		return
	}
	e.render(e.translatedContent)
}

func (e *ElementRecord) render(content string) {
	if e.rendered == content {
		return
	}
	if err := setInnerHTML(e.node, content); err != nil {
		return
	}
	e.rendered = content
}

var _ Unit = (*ElementRecord)(nil)
