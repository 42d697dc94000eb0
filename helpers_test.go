package autotranslate

import (
	"context"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"
)

// parseBody parses markup into a document and returns its body element.
func parseBody(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + markup + "</body></html>"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := findTag(doc, "body")
	if body == nil {
		t.Fatal("no body element")
	}
	return body
}

// findTag returns the first element with the given tag, depth-first.
func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findID returns the element whose id attribute matches.
func findID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		if v, ok := getAttr(n, "id"); ok && v == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// replacing returns a translator that rewrites content with a replacer.
func replacing(pairs ...string) TranslatorFunc {
	r := strings.NewReplacer(pairs...)
	return func(ctx context.Context, req BatchRequest) (map[string]string, error) {
		out := make(map[string]string, req.Batch.Len())
		for _, id := range req.Batch.IDs() {
			content, _ := req.Batch.Content(id)
			out[id] = r.Replace(content)
		}
		return out, nil
	}
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	started  []int
	failures []*BatchError
	finished []Summary
}

func (n *recordingNotifier) ProcessingStarted(batches int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, batches)
}

func (n *recordingNotifier) BatchFailed(err *BatchError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, err)
}

func (n *recordingNotifier) ProcessingFinished(summary Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = append(n.finished, summary)
}

// fakeUnit is a Unit with fixed content.
type fakeUnit struct {
	id      string
	content string
}

func (f fakeUnit) ID() string                  { return f.id }
func (f fakeUnit) Content() string             { return f.content }
func (f fakeUnit) SetTranslation(string) error { return nil }
func (f fakeUnit) DisplayOriginal()            {}
func (f fakeUnit) DisplayTranslated()          {}
