package action

import (
	"context"
	"fmt"
	"time"
)

// Dispatcher resolves actions to their bound handlers and runs them.
//
// Usage:
//  1. Create a registry with NewRegistry and bind handlers with
//     Register / RegisterJSON
//  2. Create a dispatcher with NewDispatcher
//  3. Dispatch actions with Dispatch (blocking) or DispatchPublishing
//     (streaming)
//
// Dispatcher holds no cross-request state beyond the registry: each
// dispatch is an independent execution, and dispatching the same
// action twice runs the handler twice. It is safe for concurrent use
// after configuration.
type Dispatcher struct {
	registry *Registry
	codecs   []Codec
	hooks    hooks
}

// NewDispatcher creates a Dispatcher over reg with the given options.
//
// Example:
//
//	d := action.NewDispatcher(reg,
//	    action.WithOnDispatch(func(ctx context.Context, name string) context.Context {
//	        return logx.WithCtx(ctx, slog.String("action", name))
//	    }),
//	    action.WithOnComplete(func(ctx context.Context, name string, d time.Duration) {
//	        metrics.Timing("action.complete", d)
//	    }),
//	)
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: reg}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.codecs) == 0 {
		d.codecs = []Codec{JSONCodec()}
	}
	return d
}

// Dispatch resolves act's handler, runs it, and blocks until the
// handler delivers a final result, delivers a typed failure, returns
// an error, or ctx is cancelled. Partial results are discarded; use
// DispatchPublishing to observe them.
//
// The error is *UnboundActionError if no handler is registered,
// *HandlerExecutionError if Execute returned a non-nil error, the
// handler's own error as passed to Sink.Fail, or ctx.Err() if
// cancellation won. Stalled handlers are not timed out here; bound the
// wait with a ctx deadline.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
//
// Example:
//
//	user, err := action.Dispatch[User](ctx, d, GetUser{ID: 42})
func Dispatch[R any](ctx context.Context, d *Dispatcher, act Action) (R, error) {
	var zero R
	name := act.ActionName()
	b, err := d.registry.lookup(name)
	if err != nil {
		d.callOnUnbound(ctx, name)
		return zero, err
	}
	s, err := d.await(ctx, b, act)
	if err != nil {
		return zero, err
	}
	if s.failure != nil {
		return zero, s.failure
	}
	out, ok := s.value.(R)
	if !ok {
		return zero, fmt.Errorf("action %q: handler produced %T, caller wants %T", name, s.value, zero)
	}
	return out, nil
}

// DispatchPublishing resolves act's handler and runs it, delivering
// every partial result and the terminal result to sink in emission
// order. It returns once Execute returns; a handler that completes
// asynchronously keeps delivering to sink afterwards.
//
// A typed failure reaches sink.Fail and DispatchPublishing returns
// nil. If Execute returns a non-nil error, the wrapped
// *HandlerExecutionError is delivered to sink.Fail (unless the
// dispatch already terminated) and also returned.
//
// Example:
//
//	err := action.DispatchPublishing(ctx, d, Tail{Path: p}, lineSink)
func DispatchPublishing[R any](ctx context.Context, d *Dispatcher, act Action, sink Sink[R]) error {
	name := act.ActionName()
	b, err := d.registry.lookup(name)
	if err != nil {
		d.callOnUnbound(ctx, name)
		return err
	}
	ctx = d.callOnDispatch(ctx, name)
	req := d.newRequest(ctx, name, func(del delivery) error {
		if del.err != nil {
			return sink.Fail(del.err)
		}
		v, ok := del.value.(R)
		if !ok {
			return fmt.Errorf("action %q: handler produced %T, caller wants %T", name, del.value, *new(R))
		}
		if del.partial {
			return sink.Publish(v)
		}
		return sink.Complete(v)
	})
	return d.run(ctx, b, act, req)
}

// settled is the outcome of an awaited dispatch: a final value or a
// typed failure from Sink.Fail. Execution errors and cancellation
// travel separately.
type settled struct {
	value   any
	failure error
}

// await runs the handler and blocks until the dispatch terminates or
// ctx is cancelled.
func (d *Dispatcher) await(ctx context.Context, b *binding, act Action) (settled, error) {
	ctx = d.callOnDispatch(ctx, b.name)
	req := d.newRequest(ctx, b.name, nil)
	if err := d.run(ctx, b, act, req); err != nil {
		return settled{}, err
	}
	select {
	case <-req.done:
	case <-ctx.Done():
		if req.detach(ctx.Err()) {
			return settled{}, ctx.Err()
		}
		// The dispatch terminated while cancellation was being
		// observed; the outcome is readable.
		<-req.done
	}
	v, err := req.outcome()
	if err != nil {
		return settled{failure: err}, nil
	}
	return settled{value: v}, nil
}

// run invokes the handler and folds a returned error into the
// dispatch.
func (d *Dispatcher) run(ctx context.Context, b *binding, act Action, req *request) error {
	req.begin()
	if err := b.invoke(ctx, act, req); err != nil {
		werr := &HandlerExecutionError{Name: b.name, Err: err}
		req.abort(werr)
		return werr
	}
	return nil
}

// newRequest wires a request's lifecycle into the dispatcher's hooks.
func (d *Dispatcher) newRequest(ctx context.Context, name string, emit func(delivery) error) *request {
	req := newRequest(ctx, name, emit)
	start := time.Now()
	req.onPublish = func(seq int) {
		d.callOnPublish(ctx, name, seq)
	}
	req.onComplete = func() {
		d.callOnComplete(ctx, name, time.Since(start))
	}
	req.onFailure = func(err error) {
		d.callOnFailure(ctx, name, err, time.Since(start))
	}
	return req
}

// callOnDispatch calls OnDispatch hooks, chaining the context through
// each.
func (d *Dispatcher) callOnDispatch(ctx context.Context, name string) context.Context {
	for _, fn := range d.hooks.onDispatch {
		ctx = fn(ctx, name)
	}
	return ctx
}

func (d *Dispatcher) callOnPublish(ctx context.Context, name string, seq int) {
	for _, fn := range d.hooks.onPublish {
		fn(ctx, name, seq)
	}
}

func (d *Dispatcher) callOnComplete(ctx context.Context, name string, dur time.Duration) {
	for _, fn := range d.hooks.onComplete {
		fn(ctx, name, dur)
	}
}

func (d *Dispatcher) callOnFailure(ctx context.Context, name string, err error, dur time.Duration) {
	for _, fn := range d.hooks.onFailure {
		fn(ctx, name, err, dur)
	}
}

func (d *Dispatcher) callOnUnbound(ctx context.Context, name string) {
	for _, fn := range d.hooks.onUnbound {
		fn(ctx, name)
	}
}
