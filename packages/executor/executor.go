package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/logging"
)

// Transport issues a single outbound call. Cancelling ctx must abort it.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Observer is notified after every execution, once the slot is released.
type Observer func(spec RequestSpec, result Result)

type Executor struct {
	transport Transport
	slot      *Slot
	logger    *slog.Logger
	observer  Observer
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(e *Executor) {
		e.observer = observer
	}
}

// WithSlot shares an existing slot, e.g. with a Controller created first.
func WithSlot(slot *Slot) Option {
	return func(e *Executor) {
		e.slot = slot
	}
}

func New(transport Transport, opts ...Option) *Executor {
	e := &Executor{
		transport: transport,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.slot == nil {
		e.slot = NewSlot()
	}
	return e
}

// Slot returns the executor's slot.
func (e *Executor) Slot() *Slot {
	return e.slot
}

// Controller returns a Controller bound to the executor's slot.
func (e *Executor) Controller() *Controller {
	return NewController(e.slot, e.logger)
}

// Close cancels any outstanding execution and rejects later ones.
func (e *Executor) Close() {
	e.slot.Close()
}

type outcome struct {
	resp *http.Response
	err  error
}

// Execute runs spec, preempting any execution already in flight. Cancelling
// ctx has the same effect as cancelling through the Controller.
func (e *Executor) Execute(ctx context.Context, spec RequestSpec) Result {
	start := time.Now()
	result := e.execute(ctx, spec)
	result.Duration = time.Since(start)

	if e.observer != nil {
		e.observer(spec, result)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, spec RequestSpec) Result {
	method, ok := ParseMethod(spec.Method)
	if !ok {
		e.logger.Debug("rejected request",
			slog.String("method", spec.Method),
			slog.String("url", spec.URL))
		return TransportError(msgUnsupportedMethod)
	}

	h := e.slot.Acquire(ctx)
	defer e.slot.Release(h)

	req := e.buildRequest(method, spec)

	e.logger.Debug("executing request",
		slog.Uint64("seq", h.Seq()),
		slog.String("method", req.Method),
		slog.String("url", req.URL))

	// Buffered so a discarded call can finish without a receiver.
	done := make(chan outcome, 1)
	go func() {
		resp, err := e.transport.Do(h.Context(), req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case <-h.Done():
		e.logCancelled(h)
		return Cancelled()
	case out := <-done:
		// A fired cancellation signal wins even if the call completed.
		if h.Cancelled() {
			e.logCancelled(h)
			return Cancelled()
		}
		if out.err != nil {
			e.logger.Debug("transport error",
				slog.Uint64("seq", h.Seq()),
				slog.Any("error", out.err))
			return TransportError(out.err.Error())
		}
		return classify(out.resp)
	}
}

func (e *Executor) buildRequest(method Method, spec RequestSpec) *http.Request {
	req := http.NewRequest(string(method), spec.URL)

	for _, h := range spec.Headers {
		if h.Key == "" || h.Value == "" {
			e.logger.Debug("dropping header with empty key or value",
				slog.String("key", h.Key))
			continue
		}
		req.AddHeader(h.Key, h.Value)
	}

	if spec.Body != nil {
		req.SetBody(*spec.Body)
	}
	return req
}

func (e *Executor) logCancelled(h *Handle) {
	e.logger.Debug("request cancelled",
		slog.Uint64("seq", h.Seq()),
		slog.Any("cause", h.Cause()))
}

func classify(resp *http.Response) Result {
	if resp.IsSuccess() || resp.IsRedirect() {
		body, ok := resp.BodyJSON()
		if !ok {
			return TransportError(msgParseFailed)
		}
		return Success(resp.StatusCode, body)
	}
	return HTTPError(resp.StatusCode)
}
