package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/chatstream/httpclient"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/validation"
	"github.com/kbukum/chatstream/version"
)

// Transport opens streaming HTTP exchanges. *httpclient.Client implements it.
type Transport interface {
	DoStream(ctx context.Context, req httpclient.Request) (*httpclient.StreamResponse, error)
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	transport    Transport
	transportSet bool
	log          *logger.Logger
	observers    []Observer
	tracers      trace.TracerProvider
	meters       metric.MeterProvider
}

// WithTransport sets the transport. Defaults to a fresh httpclient.Client.
// A nil transport makes NewEngine fail with ErrNoTransport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
		o.transportSet = true
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithObserver subscribes o to fragment and state notifications.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithTracerProvider sets the tracer provider. Defaults to the otel global.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracers = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the otel global.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meters = mp }
}

// Engine drives streaming chat exchanges for exactly one conversation.
//
// At most one exchange is in flight at a time; a concurrent Send is rejected
// with ErrConcurrentExchange rather than queued.
type Engine struct {
	cfg       ProviderConfig
	dialect   Dialect
	transport Transport
	log       *logger.Logger
	tel       *telemetry
	observers []Observer

	mu         sync.Mutex
	transcript *Transcript
	state      State
	lastErr    error
	cancel     context.CancelFunc
	pending    []notification
	delivering bool
}

// notification is one queued observer call. An empty fragment with a
// non-zero to state is a state change.
type notification struct {
	id       string
	from, to State
	fragment string
}

// exchange is the per-Send scratch state.
type exchange struct {
	id        string
	started   time.Time
	fragments int
	content   strings.Builder
}

// NewEngine validates cfg, resolves its dialect and returns an idle engine.
func NewEngine(cfg ProviderConfig, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validation.Validate(cfg); err != nil {
		return nil, &Error{Kind: KindInvalidInput, Message: err.Error(), Err: err}
	}
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	if o.transportSet && o.transport == nil {
		return nil, ErrNoTransport
	}
	if o.transport == nil {
		client, err := httpclient.New(httpclient.Config{
			Headers: map[string]string{"User-Agent": version.UserAgent("chatstream")},
		})
		if err != nil {
			return nil, fmt.Errorf("llm: create transport: %w", err)
		}
		o.transport = client
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}

	return &Engine{
		cfg:        cfg,
		dialect:    dialect,
		transport:  o.transport,
		log:        o.log.WithComponent("llm"),
		tel:        newTelemetry(o.tracers, o.meters),
		observers:  o.observers,
		transcript: NewTranscript(cfg.SystemPrompt),
	}, nil
}

// Send appends text as a user turn and streams the assistant reply into the
// transcript. onFragment, when non-nil, receives each non-empty fragment
// right after it is appended.
//
// On failure the returned Result still carries any partial content, and the
// error is also stored as LastError.
func (e *Engine) Send(ctx context.Context, text string, onFragment FragmentFunc) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ex, history, err := e.begin(text, cancel)
	if err != nil {
		return Result{}, err
	}

	ctx, span := e.tel.start(ctx, ex.id, e.cfg, e.dialect.Name())
	res, err := e.run(ctx, ex, history, onFragment)
	e.tel.finish(ctx, span, e.dialect.Name(), res, err)
	return res, err
}

// begin moves Idle/Completed/Failed to Sending and prepares the transcript.
// The returned history excludes the placeholder.
func (e *Engine) begin(text string, cancel context.CancelFunc) (*exchange, []Turn, error) {
	e.mu.Lock()
	if e.state.active() {
		e.mu.Unlock()
		return nil, nil, ErrConcurrentExchange
	}

	if err := e.transcript.Append(Turn{Role: RoleUser, Content: text}); err != nil {
		e.mu.Unlock()
		return nil, nil, err
	}
	history := e.transcript.Turns()
	e.transcript.OpenPlaceholder()

	ex := &exchange{id: uuid.NewString(), started: time.Now()}
	from := e.state
	e.state = StateSending
	e.lastErr = nil
	e.cancel = cancel
	e.enqueueStateLocked(ex.id, from, StateSending)
	e.mu.Unlock()

	e.log.Debug("exchange started", logger.Fields(
		logger.FieldExchangeID, ex.id,
		logger.FieldDialect, e.dialect.Name(),
		logger.FieldModel, e.cfg.Model,
		"history", len(history),
	))
	e.flush()
	return ex, history, nil
}

func (e *Engine) run(ctx context.Context, ex *exchange, history []Turn, onFragment FragmentFunc) (Result, error) {
	req, err := e.dialect.BuildRequest(e.cfg, history)
	if err != nil {
		return e.fail(ex, &Error{Kind: KindInvalidInput, Message: "build request", Err: err})
	}

	resp, err := e.transport.DoStream(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    req.Body,
	})
	if err != nil {
		return e.fail(ex, classifyTransportError(ctx, err))
	}
	if resp == nil || resp.Body == nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return e.fail(ex, &Error{Kind: KindEmptyBody, StatusCode: status, Message: "response body is empty"})
	}
	defer func() { _ = resp.Close() }()

	e.transition(ex, StateSending, StateStreaming)

	for line, readErr := range Lines(resp.Body) {
		if readErr != nil {
			return e.fail(ex, classifyTransportError(ctx, readErr))
		}

		fragment, decodeErr := e.dialect.ExtractFragment(line)
		if decodeErr != nil {
			e.log.Warn("skipping malformed stream line", logger.Fields(
				logger.FieldExchangeID, ex.id,
				logger.FieldDialect, e.dialect.Name(),
				logger.FieldError, decodeErr.Error(),
			))
			continue
		}
		if fragment == "" {
			continue
		}

		if err := e.grow(ex, fragment); err != nil {
			return e.fail(ex, err)
		}
		e.tel.fragment(ctx, e.dialect.Name())
		e.deliver(ex.id, onFragment, fragment)
	}

	return e.complete(ex)
}

func (e *Engine) grow(ex *exchange, fragment string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.transcript.Grow(fragment); err != nil {
		return err
	}
	ex.fragments++
	ex.content.WriteString(fragment)
	if len(e.observers) > 0 {
		e.pending = append(e.pending, notification{id: ex.id, fragment: fragment})
	}
	return nil
}

// complete finalizes the placeholder. An exchange that produced no content
// leaves no assistant turn behind.
func (e *Engine) complete(ex *exchange) (Result, error) {
	e.mu.Lock()
	if turn, err := e.transcript.LastMutable(); err == nil {
		if turn.Content == "" {
			e.transcript.RemoveLast()
		} else {
			e.transcript.Seal()
		}
	}
	from := e.state
	e.state = StateCompleted
	e.cancel = nil
	e.enqueueStateLocked(ex.id, from, StateCompleted)
	e.mu.Unlock()

	fields := logger.DurationFields("exchange", time.Since(ex.started))
	fields[logger.FieldExchangeID] = ex.id
	fields[logger.FieldFragments] = ex.fragments
	e.log.Debug("exchange completed", fields)
	e.flush()

	return Result{
		ExchangeID: ex.id,
		Content:    ex.content.String(),
		Fragments:  ex.fragments,
	}, nil
}

// fail rolls back an empty placeholder or keeps a partial one as final.
func (e *Engine) fail(ex *exchange, err error) (Result, error) {
	partial := false

	e.mu.Lock()
	if turn, mErr := e.transcript.LastMutable(); mErr == nil {
		if turn.Content == "" {
			e.transcript.RemoveLast()
		} else {
			e.transcript.Seal()
			partial = true
		}
	}
	from := e.state
	e.state = StateFailed
	e.lastErr = err
	e.cancel = nil
	e.enqueueStateLocked(ex.id, from, StateFailed)
	e.mu.Unlock()

	e.log.Warn("exchange failed", logger.MergeWithError(logger.Fields(
		logger.FieldExchangeID, ex.id,
		logger.FieldFragments, ex.fragments,
		"partial", partial,
	), err))
	e.flush()

	return Result{
		ExchangeID: ex.id,
		Content:    ex.content.String(),
		Fragments:  ex.fragments,
		Partial:    partial,
	}, err
}

func (e *Engine) transition(ex *exchange, from, to State) {
	e.mu.Lock()
	e.state = to
	e.enqueueStateLocked(ex.id, from, to)
	e.mu.Unlock()
	e.flush()
}

// Cancel aborts the in-flight exchange, if any. The aborted Send fails with
// a transport error. It reports whether an exchange was in flight.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Reset restores the transcript to its seed and returns the engine to Idle.
// It fails with ErrConcurrentExchange while an exchange is in flight.
func (e *Engine) Reset() error {
	e.mu.Lock()
	if e.state.active() {
		e.mu.Unlock()
		return ErrConcurrentExchange
	}
	e.transcript.Reset(e.cfg.SystemPrompt)
	from := e.state
	e.state = StateIdle
	e.lastErr = nil
	if from != StateIdle {
		e.enqueueStateLocked("", from, StateIdle)
	}
	e.mu.Unlock()

	e.flush()
	return nil
}

// --- read-only accessors ---

// Transcript returns a copy of the current turns.
func (e *Engine) Transcript() []Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcript.Turns()
}

// IsStreaming reports whether an exchange is in flight.
func (e *Engine) IsStreaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.active()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastError returns the error of the most recent failed exchange, or nil.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Config returns a copy of the provider configuration.
func (e *Engine) Config() ProviderConfig { return e.cfg }

// Dialect returns the dialect used by this engine.
func (e *Engine) Dialect() Dialect { return e.dialect }

// --- notifications ---

func (e *Engine) deliver(id string, onFragment FragmentFunc, fragment string) {
	if onFragment != nil {
		e.safely(id, "on_fragment", func() { onFragment(fragment) })
	}
	e.flush()
}

// enqueueStateLocked queues a state change. Callers hold e.mu, so the queue
// order is the order in which the engine changed state.
func (e *Engine) enqueueStateLocked(id string, from, to State) {
	if len(e.observers) > 0 {
		e.pending = append(e.pending, notification{id: id, from: from, to: to})
	}
}

// flush drains the observer queue outside the lock. Only one goroutine
// drains at a time; a caller that finds a drain in progress returns and
// leaves its notifications to that goroutine.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		for _, n := range batch {
			e.dispatch(n)
		}
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

func (e *Engine) dispatch(n notification) {
	for _, o := range e.observers {
		if n.fragment != "" {
			e.safely(n.id, "observer", func() { o.OnFragment(n.id, n.fragment) })
		} else {
			e.safely(n.id, "observer", func() { o.OnStateChange(n.id, n.from, n.to) })
		}
	}
}

func (e *Engine) safely(id, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("callback panicked", logger.Fields(
				logger.FieldExchangeID, id,
				"hook", hook,
				"panic", fmt.Sprintf("%v", r),
			))
		}
	}()
	fn()
}
