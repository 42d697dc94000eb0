package autotranslate

import (
	"strings"
	"testing"
)

func TestElementRecord_Snapshot(t *testing.T) {
	body := parseBody(t, `<p id="p" class="c">Hello <a href="/x">there</a></p>`)
	p := findID(body, "p")
	rec := NewRegistry().Visit(p)

	if rec.TagName() != "p" {
		t.Errorf("TagName() = %q", rec.TagName())
	}
	if rec.OriginalContent() != `Hello <a href="/x">there</a>` {
		t.Errorf("OriginalContent() = %q", rec.OriginalContent())
	}
	if rec.OriginalContentMinimized() != `Hello <a rid="0">there</a>` {
		t.Errorf("OriginalContentMinimized() = %q", rec.OriginalContentMinimized())
	}
	if _, ok := rec.TranslatedContent(); ok {
		t.Error("new record should have no translation")
	}

	// Later DOM changes do not alter the snapshot.
	p.FirstChild.Data = "Changed "
	if rec.OriginalContent() != `Hello <a href="/x">there</a>` {
		t.Error("original content must be immutable")
	}
}

func TestElementRecord_MinimizedMemoized(t *testing.T) {
	body := parseBody(t, `<p id="p">Hello</p>`)
	rec := NewRegistry().Visit(findID(body, "p"))

	first := rec.minimized()
	if rec.minimized() != first {
		t.Error("minimization should be computed once")
	}

	rec.InvalidateMinimized()
	if rec.minimized() == first {
		t.Error("InvalidateMinimized should force recomputation")
	}
}

func TestElementRecord_Children(t *testing.T) {
	body := parseBody(t, `<div id="d"><p>One</p>text<span>Two</span></div>`)
	reg := NewRegistry()
	rec := reg.Visit(findID(body, "d"))

	children := rec.Children()
	if len(children) != 2 {
		t.Fatalf("expected 2 element children, got %d", len(children))
	}
	if children[0].TagName() != "p" || children[1].TagName() != "span" {
		t.Errorf("unexpected children: %s, %s", children[0].TagName(), children[1].TagName())
	}

	again := rec.Children()
	if again[0] != children[0] {
		t.Error("children records should be shared")
	}
}

func TestElementRecord_DisplayTranslatedWithoutTranslation(t *testing.T) {
	body := parseBody(t, `<p id="p">Hello <b>world</b></p>`)
	p := findID(body, "p")
	rec := NewRegistry().Visit(p)

	before := innerHTML(p)
	firstChild := p.FirstChild
	rec.DisplayTranslated()

	if innerHTML(p) != before {
		t.Errorf("content changed: %q", innerHTML(p))
	}
	if p.FirstChild != firstChild {
		t.Error("untranslated record must not re-render its element")
	}
}

func TestElementRecord_Toggle(t *testing.T) {
	body := parseBody(t, `<p id="p">Hello <a href="/x" class="l">world</a></p>`)
	p := findID(body, "p")
	rec := NewRegistry().Visit(p)

	if err := rec.SetTranslatedContent(`Hola <a rid="0">mundo</a>`); err != nil {
		t.Fatalf("SetTranslatedContent failed: %v", err)
	}
	translated, ok := rec.TranslatedContent()
	if !ok || translated != `Hola <a href="/x" class="l">mundo</a>` {
		t.Fatalf("TranslatedContent() = %q, %v", translated, ok)
	}

	rec.DisplayTranslated()
	if innerHTML(p) != translated {
		t.Errorf("translated view = %q", innerHTML(p))
	}

	rec.DisplayOriginal()
	once := innerHTML(p)
	rec.DisplayOriginal()
	if innerHTML(p) != once {
		t.Error("DisplayOriginal should be idempotent")
	}
	if once != `Hello <a href="/x" class="l">world</a>` {
		t.Errorf("original view = %q", once)
	}

	rec.DisplayTranslated()
	if !strings.Contains(innerHTML(p), "mundo") {
		t.Errorf("translation not shown again: %q", innerHTML(p))
	}
}
