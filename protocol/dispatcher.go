package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownCommand is returned for commands a page does not handle.
var ErrUnknownCommand = errors.New("unknown command")

// TranslatorFactory builds the translator for one translatePage command
// from the endpoint settings the command carries.
type TranslatorFactory func(cfg autotranslate.APIConfig) (autotranslate.BatchTranslator, error)

// Dispatcher routes commands to one page session and forwards the page's
// notifications to a sink. It implements autotranslate.Notifier.
type Dispatcher struct {
	page     *autotranslate.Page
	factory  TranslatorFactory
	sink     Sink
	session  string
	logger   *zap.Logger
	defaults TranslatePageParams

	mu       sync.Mutex
	inflight bool
	wg       sync.WaitGroup
}

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSession sets the session id instead of a generated one.
func WithSession(id string) DispatcherOption {
	return func(d *Dispatcher) {
		if id != "" {
			d.session = id
		}
	}
}

// WithDefaults fills translatePage parameters a command leaves empty.
func WithDefaults(params TranslatePageParams) DispatcherOption {
	return func(d *Dispatcher) {
		d.defaults = params
	}
}

// NewDispatcher creates a dispatcher for page. Every dispatcher gets a
// random session id carried on all messages it sends.
func NewDispatcher(page *autotranslate.Page, factory TranslatorFactory, sink Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		page:    page,
		factory: factory,
		sink:    sink,
		session: uuid.NewString(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sink == nil {
		d.sink = SinkFunc(func(Message) error { return nil })
	}
	return d
}

// Session returns the session id.
func (d *Dispatcher) Session() string { return d.session }

// Page returns the page the dispatcher drives.
func (d *Dispatcher) Page() *autotranslate.Page { return d.page }

// Handle runs a command to completion and returns the postState reply.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (Message, error) {
	switch msg.Command {
	case CmdTranslatePage:
		params, translator, err := d.prepare(msg)
		if err != nil {
			return Message{}, err
		}
		if !d.begin() {
			return Message{}, autotranslate.ErrTranslationInProgress
		}
		defer d.end()
		if err := d.translate(ctx, translator, params); err != nil {
			return Message{}, err
		}
	case CmdDisplayOriginalPage:
		d.page.DisplayOriginal()
	case CmdDisplayTranslatedPage:
		d.page.DisplayTranslated()
	case CmdRequestState:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Command)
	}
	return d.State()
}

// HandleAsync starts a translatePage command in the background and returns
// once it is accepted. The command keeps ctx's values but not its
// cancellation. Other commands run synchronously. Results reach the sink as
// notifications.
func (d *Dispatcher) HandleAsync(ctx context.Context, msg Message) error {
	if msg.Command != CmdTranslatePage {
		_, err := d.Handle(ctx, msg)
		return err
	}

	params, translator, err := d.prepare(msg)
	if err != nil {
		return err
	}
	if !d.begin() {
		return autotranslate.ErrTranslationInProgress
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.end()
		if err := d.translate(bg, translator, params); err != nil {
			d.logger.Error("translatePage failed", zap.String("session", d.session), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until background commands have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// State returns the postState message for the current view state.
func (d *Dispatcher) State() (Message, error) {
	return NewMessage(CmdPostState, d.session, StateParams{State: d.page.State().String()})
}

func (d *Dispatcher) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight || d.page.State() == autotranslate.StateRequesting {
		return false
	}
	d.inflight = true
	return true
}

func (d *Dispatcher) end() {
	d.mu.Lock()
	d.inflight = false
	d.mu.Unlock()
}

func (d *Dispatcher) prepare(msg Message) (TranslatePageParams, autotranslate.BatchTranslator, error) {
	var params TranslatePageParams
	if err := msg.DecodeParameters(&params); err != nil {
		return params, nil, fmt.Errorf("decoding %s parameters: %w", msg.Command, err)
	}
	params = d.withDefaults(params)

	if d.factory == nil {
		return params, nil, errors.New("no translator configured")
	}
	translator, err := d.factory(params.APIConfig)
	if err != nil {
		return params, nil, fmt.Errorf("creating translator: %w", err)
	}
	return params, translator, nil
}

func (d *Dispatcher) withDefaults(p TranslatePageParams) TranslatePageParams {
	if p.TargetLanguage == "" {
		p.TargetLanguage = d.defaults.TargetLanguage
	}
	if p.CharacterLimit <= 0 {
		p.CharacterLimit = d.defaults.CharacterLimit
	}
	api, def := &p.APIConfig, d.defaults.APIConfig
	if api.Endpoint == "" {
		api.Endpoint = def.Endpoint
	}
	if api.Key == "" {
		api.Key = def.Key
	}
	if api.Model == "" {
		api.Model = def.Model
	}
	if api.Role == "" {
		api.Role = def.Role
	}
	if api.Temperature == nil {
		api.Temperature = def.Temperature
	}
	return p
}

func (d *Dispatcher) translate(ctx context.Context, translator autotranslate.BatchTranslator, params TranslatePageParams) error {
	_, err := d.page.TranslatePage(ctx, translator, autotranslate.TranslateOptions{
		TargetLanguage: params.TargetLanguage,
		CharacterLimit: params.CharacterLimit,
		Notifier:       d,
	})
	return err
}

func (d *Dispatcher) send(cmd Command, params interface{}) {
	msg, err := NewMessage(cmd, d.session, params)
	if err == nil {
		err = d.sink.Send(msg)
	}
	if err != nil {
		d.logger.Warn("failed to send notification",
			zap.String("command", string(cmd)),
			zap.String("session", d.session),
			zap.Error(err))
	}
}

// ProcessingStarted implements autotranslate.Notifier.
func (d *Dispatcher) ProcessingStarted(batches int) {
	d.send(CmdNotifyRequestProcessing, ProcessingParams{Batches: batches})
}

// BatchFailed implements autotranslate.Notifier.
func (d *Dispatcher) BatchFailed(err *autotranslate.BatchError) {
	d.send(CmdNotifyError, ErrorParams{
		Kind:    ErrorKind(err),
		Message: err.Error(),
		Batch:   err.Index,
		Units:   err.Units,
	})
}

// ProcessingFinished implements autotranslate.Notifier.
func (d *Dispatcher) ProcessingFinished(summary autotranslate.Summary) {
	d.send(CmdNotifyRequestProcessingFinished, finishedParams(summary))
}

// ErrorKind classifies an error for notifyError.
func ErrorKind(err error) string {
	var (
		transportErr *autotranslate.TransportError
		protocolErr  *autotranslate.ProtocolError
		markupErr    *autotranslate.MarkupError
	)
	switch {
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &markupErr):
		return "markup"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "transport"
	default:
		return "unknown"
	}
}

var _ autotranslate.Notifier = (*Dispatcher)(nil)
