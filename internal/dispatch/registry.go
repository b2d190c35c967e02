package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/comboseq/internal/ir"
)

// ErrUnknownEventClass is returned in strict mode for a class with no handler.
var ErrUnknownEventClass = errors.New("unknown event class")

// Handler runs the designer behaviour bound to an event class.
type Handler interface {
	Handle(ctx context.Context, call ir.EventCall) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, call ir.EventCall) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, call ir.EventCall) error {
	return f(ctx, call)
}

// HandlerError wraps a failure of the handler bound to EventClass.
type HandlerError struct {
	EventClass ir.EventClass
	Phase      ir.EventPhase
	Index      int
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s (%s, state %d): %v", e.EventClass, e.Phase, e.Index, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Registry maps event classes to handlers.
//
// Register and Dispatch are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[ir.EventClass][]Handler
	fallback Handler
	strict   bool
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrict makes Dispatch report calls whose class has no handler.
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// WithFallback sets the handler for classes with no registration.
func WithFallback(h Handler) Option {
	return func(r *Registry) {
		r.fallback = h
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[ir.EventClass][]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends h to the handlers of class. Handlers for one class run
// in registration order.
func (r *Registry) Register(class ir.EventClass, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[class] = append(r.handlers[class], h)
}

// RegisterFunc registers a function handler.
func (r *Registry) RegisterFunc(class ir.EventClass, f func(ctx context.Context, call ir.EventCall) error) {
	r.Register(class, HandlerFunc(f))
}

// Classes returns the number of classes with at least one handler.
func (r *Registry) Classes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Dispatch invokes handlers for calls in order. A failing handler does not
// stop later calls; all failures are joined into the returned error.
// Cancellation of ctx stops dispatch before the next call.
func (r *Registry) Dispatch(ctx context.Context, calls []ir.EventCall) error {
	var errs []error

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("dispatch cancelled: %w", err))
			break
		}

		handlers := r.lookup(call.EventClass)
		if len(handlers) == 0 {
			if r.strict {
				errs = append(errs, &HandlerError{
					EventClass: call.EventClass,
					Phase:      call.Phase,
					Index:      call.Index,
					Err:        ErrUnknownEventClass,
				})
				continue
			}
			r.logger.Debug("no handler for event class",
				"event_class", call.EventClass,
				"index", call.Index)
			continue
		}

		for _, h := range handlers {
			if err := h.Handle(ctx, call); err != nil {
				errs = append(errs, &HandlerError{
					EventClass: call.EventClass,
					Phase:      call.Phase,
					Index:      call.Index,
					Err:        err,
				})
			}
		}
	}

	return errors.Join(errs...)
}

func (r *Registry) lookup(class ir.EventClass) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if hs := r.handlers[class]; len(hs) > 0 {
		return hs
	}
	if r.fallback != nil {
		return []Handler{r.fallback}
	}
	return nil
}
