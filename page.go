package autotranslate

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultRequestTimeout bounds a single batch request.
const DefaultRequestTimeout = 60 * time.Second

// Notifier receives progress of a page translation. Calls may arrive from
// several goroutines but never while the page lock is held.
type Notifier interface {
	// ProcessingStarted is called once, right before any batch is dispatched.
	ProcessingStarted(batches int)
	// BatchFailed is called for each batch whose request failed.
	BatchFailed(err *BatchError)
	// ProcessingFinished is called once every batch has settled.
	ProcessingFinished(summary Summary)
}

// NopNotifier ignores all notifications.
type NopNotifier struct{}

func (NopNotifier) ProcessingStarted(int)      {}
func (NopNotifier) BatchFailed(*BatchError)    {}
func (NopNotifier) ProcessingFinished(Summary) {}

// Summary describes the outcome of one TranslatePage call.
type Summary struct {
	TargetLanguage string
	Batches        int           // Batches dispatched
	Units          int           // Units placed in batches
	Excluded       int           // Units left out by the character budget
	Translated     int           // Units whose translation was applied
	Dropped        int           // Entries that could not be restored
	Missing        int           // Units the model did not return
	FailedBatches  int           // Batches that failed as a whole
	Errors         []error       // One entry per failed batch
	Elapsed        time.Duration // Time from dispatch to the last response
}

// TranslateOptions are the per-call parameters of TranslatePage.
type TranslateOptions struct {
	TargetLanguage string
	CharacterLimit int      // Page-wide character budget (default: DefaultCharacterLimit)
	Notifier       Notifier // Overrides the page notifier for this call
}

// Page is one page session: the node tree, its identity registry and the
// view state. All methods are safe for concurrent use.
type Page struct {
	mu       sync.Mutex
	doc      *goquery.Document
	root     *html.Node
	registry *Registry
	state    PageViewState
	// holdOriginal is set when the original view is requested while a
	// translation is in flight; later batches are applied but not shown.
	holdOriginal bool

	logger         *zap.Logger
	notifier       Notifier
	batchCharLimit int
	requestTimeout time.Duration
	textMode       bool
	handlers       HandlerTable

	htmlAttrs *documentLang
}

// PageOption is a functional option for configuring a Page.
type PageOption func(*Page)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) PageOption {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithNotifier sets the default notifier.
func WithNotifier(n Notifier) PageOption {
	return func(p *Page) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithBatchCharLimit sets the maximum number of characters per request batch.
func WithBatchCharLimit(n int) PageOption {
	return func(p *Page) {
		if n > 0 {
			p.batchCharLimit = n
		}
	}
}

// WithRequestTimeout bounds every batch request.
func WithRequestTimeout(d time.Duration) PageOption {
	return func(p *Page) {
		if d > 0 {
			p.requestTimeout = d
		}
	}
}

// WithTextUnits makes the page translate individual text nodes instead of
// whole target elements.
func WithTextUnits() PageOption {
	return func(p *Page) {
		p.textMode = true
	}
}

// WithHandlers sets the minimization handler table.
func WithHandlers(handlers HandlerTable) PageOption {
	return func(p *Page) {
		if handlers != nil {
			p.handlers = handlers
		}
	}
}

// LoadPage parses an HTML document into a new page session.
func LoadPage(r io.Reader, opts ...PageOption) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &MarkupError{UnitID: "document", Message: "failed to parse HTML", Cause: err}
	}
	return NewPage(doc, opts...), nil
}

// NewPage creates a page session over an already parsed document. The body
// element is the translation root.
func NewPage(doc *goquery.Document, opts ...PageOption) *Page {
	p := &Page{
		doc:            doc,
		state:          StateUntranslated,
		logger:         zap.NewNop(),
		notifier:       NopNotifier{},
		batchCharLimit: DefaultBatchCharLimit,
		requestTimeout: DefaultRequestTimeout,
		handlers:       DefaultHandlers,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.registry = NewRegistryWithHandlers(p.handlers)
	if body := doc.Find("body").First(); body.Length() > 0 {
		p.root = body.Nodes[0]
	} else if len(doc.Nodes) > 0 {
		p.root = firstElement(doc.Nodes[0])
	}
	return p
}

func firstElement(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := firstElement(c); e != nil {
			return e
		}
	}
	return nil
}

// State returns the current view state.
func (p *Page) State() PageViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Registry returns the page's identity registry. Callers must not use it
// while a translation is in progress.
func (p *Page) Registry() *Registry {
	return p.registry
}

// HTML serializes the page as currently displayed.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Html()
}

// Plan collects and batches the page's units without sending anything.
func (p *Page) Plan(characterLimit int) []*TranslationBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	batches, _, _ := p.plan(characterLimit)
	return batches
}

func (p *Page) plan(characterLimit int) ([]*TranslationBatch, int, int) {
	if characterLimit <= 0 {
		characterLimit = DefaultCharacterLimit
	}

	var units []Unit
	if p.textMode {
		for _, tu := range CollectTextUnits(p.registry, p.root) {
			units = append(units, tu)
		}
	} else {
		for _, rec := range CollectTargets(p.registry, p.root) {
			if isBlank(rec.OriginalContentMinimized()) {
				continue
			}
			units = append(units, rec)
		}
	}

	batches := MakeBatches(units, p.batchCharLimit, characterLimit)
	batched := 0
	for _, b := range batches {
		batched += b.Len()
	}
	return batches, batched, len(units) - batched
}

func (p *Page) kind() UnitKind {
	if p.textMode {
		return KindText
	}
	return KindElement
}

// TranslatePage collects the page's units, batches them and sends every batch
// to the translator concurrently. Each response is applied as soon as it
// arrives; the call returns once all batches have settled. Failed batches are
// reported to the notifier and leave their units untranslated without
// affecting the others. Every request is bounded by the page request timeout.
func (p *Page) TranslatePage(ctx context.Context, translator BatchTranslator, opts TranslateOptions) (*Summary, error) {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = p.notifier
	}

	p.mu.Lock()
	if p.state == StateRequesting {
		p.mu.Unlock()
		return nil, ErrTranslationInProgress
	}
	batches, batched, excluded := p.plan(opts.CharacterLimit)
	p.state = StateRequesting
	p.holdOriginal = false
	p.mu.Unlock()

	summary := Summary{
		TargetLanguage: opts.TargetLanguage,
		Batches:        len(batches),
		Units:          batched,
		Excluded:       excluded,
	}

	p.logger.Info("translating page",
		zap.String("targetLanguage", opts.TargetLanguage),
		zap.Int("batches", len(batches)),
		zap.Int("units", batched),
		zap.Int("excluded", excluded))

	notifier.ProcessingStarted(len(batches))
	start := time.Now()

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(index int, batch *TranslationBatch) {
			defer wg.Done()
			if err := p.translateBatch(ctx, translator, index, batch, opts.TargetLanguage, &summary); err != nil {
				notifier.BatchFailed(err)
			}
		}(i, batch)
	}
	wg.Wait()

	p.mu.Lock()
	summary.Elapsed = time.Since(start)
	p.state = StateViewingTranslation
	if summary.Translated > 0 {
		p.applyDocumentLang(opts.TargetLanguage)
	}
	if p.holdOriginal {
		p.restoreDocumentLang()
		p.state = StateViewingOriginal
		p.holdOriginal = false
	}
	result := summary
	p.mu.Unlock()

	p.logger.Info("page translation finished",
		zap.Int("translated", result.Translated),
		zap.Int("failedBatches", result.FailedBatches),
		zap.Int("dropped", result.Dropped),
		zap.Duration("elapsed", result.Elapsed))

	notifier.ProcessingFinished(result)
	return &result, nil
}

// translateBatch sends one batch and applies its result. The summary is only
// touched under the page lock.
func (p *Page) translateBatch(ctx context.Context, translator BatchTranslator, index int, batch *TranslationBatch, targetLanguage string, summary *Summary) *BatchError {
	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	translations, err := translator.TranslateBatch(reqCtx, BatchRequest{
		Batch:          batch,
		TargetLanguage: targetLanguage,
		Kind:           p.kind(),
		Index:          index,
	})
	if err != nil {
		batchErr := &BatchError{Index: index, Units: batch.Len(), Cause: err}
		p.logger.Warn("batch translation failed",
			zap.Int("batch", index),
			zap.Int("units", batch.Len()),
			zap.Error(err))

		p.mu.Lock()
		summary.FailedBatches++
		summary.Errors = append(summary.Errors, batchErr)
		p.mu.Unlock()
		return batchErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range batch.IDs() {
		translated, ok := translations[id]
		if !ok {
			summary.Missing++
			continue
		}
		unit, ok := p.registry.Unit(id)
		if !ok {
			summary.Missing++
			continue
		}
		if err := unit.SetTranslation(translated); err != nil {
			summary.Dropped++
			p.logger.Debug("dropping translated entry",
				zap.Int("batch", index),
				zap.String("unit", id),
				zap.Error(err))
			continue
		}
		if !p.holdOriginal {
			unit.DisplayTranslated()
		}
		summary.Translated++
	}
	return nil
}

// DisplayOriginal shows the original content of every unit ever visited.
// Called while a translation is in progress, it also keeps batches that
// arrive afterwards hidden, and the page ends in the original view.
func (p *Page) DisplayOriginal() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.registry.Units() {
		u.DisplayOriginal()
	}
	p.restoreDocumentLang()

	switch p.state {
	case StateViewingTranslation:
		p.state = StateViewingOriginal
	case StateRequesting:
		p.holdOriginal = true
	}
}

// DisplayTranslated shows the translation of every unit that has one. Units
// never translated are left as they are.
func (p *Page) DisplayTranslated() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range p.registry.Units() {
		u.DisplayTranslated()
	}
	p.reapplyDocumentLang()

	switch p.state {
	case StateViewingOriginal:
		p.state = StateViewingTranslation
	case StateRequesting:
		p.holdOriginal = false
	}
}

// documentLang remembers the <html> lang/dir attributes replaced by a translation.
type documentLang struct {
	lang, dir       string
	hasLang, hasDir bool
	translatedLang  string
	translatedDir   string
}

func (p *Page) htmlElement() *goquery.Selection {
	return p.doc.Find("html").First()
}

func (p *Page) applyDocumentLang(targetLanguage string) {
	sel := p.htmlElement()
	if sel.Length() == 0 {
		return
	}
	locale, ok := ResolveLocale(targetLanguage)
	if !ok {
		return
	}

	if p.htmlAttrs == nil {
		lang, hasLang := sel.Attr("lang")
		dir, hasDir := sel.Attr("dir")
		p.htmlAttrs = &documentLang{lang: lang, dir: dir, hasLang: hasLang, hasDir: hasDir}
	}
	p.htmlAttrs.translatedLang = ToHTMLLang(locale)
	p.htmlAttrs.translatedDir = GetDirection(locale)
	p.reapplyDocumentLang()
}

func (p *Page) reapplyDocumentLang() {
	if p.htmlAttrs == nil {
		return
	}
	sel := p.htmlElement()
	sel.SetAttr("lang", p.htmlAttrs.translatedLang)
	sel.SetAttr("dir", p.htmlAttrs.translatedDir)
}

func (p *Page) restoreDocumentLang() {
	if p.htmlAttrs == nil {
		return
	}
	sel := p.htmlElement()
	restoreAttr(sel, "lang", p.htmlAttrs.lang, p.htmlAttrs.hasLang)
	restoreAttr(sel, "dir", p.htmlAttrs.dir, p.htmlAttrs.hasDir)
}

func restoreAttr(sel *goquery.Selection, name, val string, present bool) {
	if present {
		sel.SetAttr(name, val)
	} else {
		sel.RemoveAttr(name)
	}
}
