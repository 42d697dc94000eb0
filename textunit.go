package autotranslate

import "golang.org/x/net/html"

// TextUnit is a single text node tracked as a translation unit.
type TextUnit struct {
	id             string
	node           *html.Node
	original       string
	translated     string
	hasTranslation bool
}

func (t *TextUnit) ID() string { return t.id }

// Content returns the original text, whitespace included.
func (t *TextUnit) Content() string { return t.original }

// OriginalText returns the text captured when the unit was created.
func (t *TextUnit) OriginalText() string { return t.original }

// TranslatedText returns the translation, or the original text if none was set.
func (t *TextUnit) TranslatedText() string {
	if !t.hasTranslation {
		return t.original
	}
	return t.translated
}

// HasTranslation reports whether a translation was ever set.
func (t *TextUnit) HasTranslation() bool { return t.hasTranslation }

func (t *TextUnit) SetTranslatedText(text string) {
	t.translated = text
	t.hasTranslation = true
}

// SetTranslation implements Unit.
func (t *TextUnit) SetTranslation(translated string) error {
	t.SetTranslatedText(translated)
	return nil
}

func (t *TextUnit) DisplayOriginal() {
	t.node.Data = t.original
}

func (t *TextUnit) DisplayTranslated() {
	if t.hasTranslation {
		t.node.Data = t.translated
	}
}

var _ Unit = (*TextUnit)(nil)
