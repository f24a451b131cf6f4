package action

import "context"

// Action is a typed request describing one unit of work. Actions are
// immutable values built by the caller for a single dispatch; the name
// is the stable type tag used as the registry key.
//
// ActionName must be callable on the zero value of the implementing
// type, since registration derives the key before any value exists:
//
//	type GetUser struct {
//	    ID int `json:"id"`
//	}
//
//	func (GetUser) ActionName() string { return "user/get" }
type Action interface {
	// ActionName returns the stable identifier this action type is
	// registered under.
	ActionName() string
}

// Sink receives the results of one dispatch. Handlers emit through it;
// streaming callers implement it to observe results as they are
// produced.
//
// For a single dispatch, Publish may be called any number of times,
// followed by exactly one call to Complete or Fail. Calls are
// serialized by the dispatcher, so implementations never see
// overlapping calls for the same dispatch. Calling Publish, Complete,
// or Fail after the dispatch already terminated is a programming error
// and panics.
//
// A non-nil return tells the handler that delivery failed (for
// example, the caller's connection is gone or its context was
// cancelled). The handler may stop early or carry on; the dispatch
// core does not force either.
type Sink[R any] interface {
	// Publish emits a partial result. Only long-running handlers that
	// produce intermediate values use this; blocking callers discard
	// partials.
	Publish(r R) error

	// Complete emits the final result and terminates the dispatch.
	Complete(r R) error

	// Fail terminates the dispatch with a typed failure. The error is
	// part of the normal result contract and reaches the caller the
	// same way a final result would, not wrapped as an execution
	// error.
	Fail(err error) error
}

// Handler executes actions of a single type. A handler is bound to
// exactly one action type at registration; the pairing of A and R is
// recorded by the registry, not rediscovered at dispatch time.
//
// Execute must arrange for exactly one of sink.Complete or sink.Fail
// to be called per invocation. It may return before that happens and
// finish the dispatch from another goroutine; the dispatcher keeps the
// per-request delivery path open until the terminal call arrives.
//
// A non-nil return is treated as an unexpected failure: the dispatcher
// wraps it in *HandlerExecutionError and terminates the dispatch. Use
// sink.Fail for domain errors that belong to the result contract.
//
// Handlers are registered once and shared across requests. A stateful
// handler is responsible for its own synchronization; the dispatcher
// provides no locking around handler state.
type Handler[A Action, R any] interface {
	Execute(ctx context.Context, act A, sink Sink[R]) error
}

// HandlerFunc is a function adapter for Handler. Use for handlers that
// don't need a struct:
//
//	action.Register(reg, action.HandlerFunc[Tail, Line](func(ctx context.Context, act Tail, sink action.Sink[Line]) error {
//	    // ... sink.Publish / sink.Complete ...
//	}))
type HandlerFunc[A Action, R any] func(ctx context.Context, act A, sink Sink[R]) error

// Execute implements the Handler interface.
func (f HandlerFunc[A, R]) Execute(ctx context.Context, act A, sink Sink[R]) error {
	return f(ctx, act, sink)
}

// Func adapts a plain request-response function into a Handler. The
// returned handler completes with the function's value or fails with
// its error, and never publishes partial results.
//
//	action.Register(reg, action.Func(func(ctx context.Context, act GetUser) (User, error) {
//	    return store.User(ctx, act.ID)
//	}))
func Func[A Action, R any](fn func(ctx context.Context, act A) (R, error)) Handler[A, R] {
	return HandlerFunc[A, R](func(ctx context.Context, act A, sink Sink[R]) error {
		r, err := fn(ctx, act)
		if err != nil {
			return sink.Fail(err)
		}
		return sink.Complete(r)
	})
}
