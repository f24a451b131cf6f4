package action

import (
	"context"
	"time"
)

// OnDispatchFunc is called after the handler is resolved, just before
// it executes. Use this to enrich the context with logging fields or
// trace spans; the returned context is used for the rest of the
// dispatch, including hook calls made when the handler terminates.
type OnDispatchFunc func(ctx context.Context, name string) context.Context

// OnPublishFunc is called after each partial result is delivered. seq
// is the 1-based position of the partial within its dispatch.
type OnPublishFunc func(ctx context.Context, name string, seq int)

// OnCompleteFunc is called after the handler delivers its final
// result.
type OnCompleteFunc func(ctx context.Context, name string, duration time.Duration)

// OnFailureFunc is called when a dispatch terminates without a final
// result: a typed failure, a handler-raised error, or cancellation.
type OnFailureFunc func(ctx context.Context, name string, err error, duration time.Duration)

// OnUnboundFunc is called when no handler is registered for the
// action's name. The dispatch still fails with *UnboundActionError;
// the hook is observation only.
type OnUnboundFunc func(ctx context.Context, name string)

// hooks holds all configured hook functions.
type hooks struct {
	onDispatch []OnDispatchFunc
	onPublish  []OnPublishFunc
	onComplete []OnCompleteFunc
	onFailure  []OnFailureFunc
	onUnbound  []OnUnboundFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCodecs sets the codecs used by DispatchRaw and
// DispatchRawPublishing to recognize serialized envelopes, replacing
// the default JSON codec. Codecs are tried in order.
func WithCodecs(codecs ...Codec) Option {
	return func(d *Dispatcher) {
		d.codecs = codecs
	}
}

// WithOnDispatch adds a hook called just before the handler executes.
// Multiple hooks are called in order, with context chaining through
// each.
//
// Example:
//
//	action.WithOnDispatch(func(ctx context.Context, name string) context.Context {
//	    return logx.WithCtx(ctx, slog.String("action", name))
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDispatch = append(d.hooks.onDispatch, fn)
	}
}

// WithOnPublish adds a hook called after each partial result.
// Multiple hooks are called in order.
//
// Example:
//
//	action.WithOnPublish(func(ctx context.Context, name string, seq int) {
//	    metrics.Incr("action.partial", "action:"+name)
//	})
func WithOnPublish(fn OnPublishFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onPublish = append(d.hooks.onPublish, fn)
	}
}

// WithOnComplete adds a hook called after the handler delivers its
// final result. Multiple hooks are called in order.
//
// Example:
//
//	action.WithOnComplete(func(ctx context.Context, name string, d time.Duration) {
//	    metrics.Timing("action.complete", d, "action:"+name)
//	})
func WithOnComplete(fn OnCompleteFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onComplete = append(d.hooks.onComplete, fn)
	}
}

// WithOnFailure adds a hook called when a dispatch terminates without
// a final result. Multiple hooks are called in order.
//
// Example:
//
//	action.WithOnFailure(func(ctx context.Context, name string, err error, d time.Duration) {
//	    logger.Error(ctx, "action failed", "action", name, "error", err)
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}

// WithOnUnbound adds a hook called when no handler is registered for
// a dispatched action. Multiple hooks are called in order.
//
// Example:
//
//	action.WithOnUnbound(func(ctx context.Context, name string) {
//	    logger.Warn(ctx, "unbound action", "action", name)
//	})
func WithOnUnbound(fn OnUnboundFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onUnbound = append(d.hooks.onUnbound, fn)
	}
}
