package autotranslate

import "testing"

const collectMarkup = `<div>
	<p>One <span>nested</span></p>
	<section>
		<h2>Title</h2>
		<div><label>Name</label></div>
	</section>
	<script>var x = "<p>not me</p>";</script>
	<div translate="no"><p>skip</p></div>
	<div data-no-translate><p>skip too</p></div>
	<ul><li>A</li><li>B <a href="/b">link</a></li></ul>
	<table><tr><td>Cell</td></tr></table>
	<div>no target here</div>
</div>`

func TestCollectTargets(t *testing.T) {
	body := parseBody(t, collectMarkup)
	reg := NewRegistry()

	targets := CollectTargets(reg, body)

	want := []string{"p", "h2", "label", "li", "li", "table"}
	if len(targets) != len(want) {
		var got []string
		for _, r := range targets {
			got = append(got, r.TagName())
		}
		t.Fatalf("collected %v, want %v", got, want)
	}
	for i, tag := range want {
		if targets[i].TagName() != tag {
			t.Errorf("targets[%d] = %s, want %s", i, targets[i].TagName(), tag)
		}
	}

	// The nested span travels inside its paragraph.
	if targets[0].OriginalContentMinimized() != `One <span rid="0">nested</span>` {
		t.Errorf("unexpected paragraph content: %q", targets[0].OriginalContentMinimized())
	}
}

func TestCollectTargets_RootIsTarget(t *testing.T) {
	body := parseBody(t, `<p id="p">Solo <span>inner</span></p>`)
	reg := NewRegistry()

	targets := CollectTargets(reg, findID(body, "p"))
	if len(targets) != 1 || targets[0].TagName() != "p" {
		t.Fatalf("root target should be collected whole, got %d targets", len(targets))
	}
}

func TestCollectTargets_Empty(t *testing.T) {
	body := parseBody(t, `<div><div>plain</div></div>`)

	if targets := CollectTargets(NewRegistry(), body); len(targets) != 0 {
		t.Errorf("expected no targets, got %d", len(targets))
	}
	if targets := CollectTargets(NewRegistry(), nil); targets != nil {
		t.Error("nil root should yield nothing")
	}
}

func TestCollectTextUnits(t *testing.T) {
	body := parseBody(t, `<p>Hello <b>bold</b> <code>x()</code> end</p><div>outside</div>`)
	reg := NewRegistry()

	units := CollectTextUnits(reg, body)

	want := []string{"Hello ", "bold", " end"}
	if len(units) != len(want) {
		t.Fatalf("expected %d text units, got %d", len(want), len(units))
	}
	for i, text := range want {
		if units[i].Content() != text {
			t.Errorf("units[%d] = %q, want %q", i, units[i].Content(), text)
		}
	}
}
