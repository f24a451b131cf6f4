// Package action provides typed request dispatch for client-server
// systems: callers submit action values, the dispatcher routes each to
// exactly one registered handler, and the handler's result flows back
// — either as a single blocking return or as an ordered stream of
// partial results followed by a final one.
//
// # Quick Start
//
// Define an action and a handler for it:
//
//	type GetUser struct {
//	    ID int `json:"id"`
//	}
//
//	func (GetUser) ActionName() string { return "user/get" }
//
//	type GetUserHandler struct {
//	    store UserStore
//	}
//
//	func (h *GetUserHandler) Execute(ctx context.Context, act GetUser, sink action.Sink[User]) error {
//	    u, err := h.store.User(ctx, act.ID)
//	    if err != nil {
//	        return sink.Fail(err)
//	    }
//	    return sink.Complete(u)
//	}
//
// Bind handlers at startup, then dispatch:
//
//	reg := action.NewRegistry()
//	action.MustRegister(reg, &GetUserHandler{store: store})
//
//	d := action.NewDispatcher(reg)
//
//	user, err := action.Dispatch[User](ctx, d, GetUser{ID: 42})
//
// # Design Philosophy
//
// The package separates concerns into three layers:
//
//   - Actions: immutable values naming one unit of work
//   - Dispatcher: resolves the handler, runs it, and guards the
//     per-request result protocol
//   - Handlers: business logic bound to exactly one action type
//
// The registry is an explicit table keyed on the action name. It is
// populated once at startup — a duplicate binding is a configuration
// error, not a dispatch error — and is read-only afterwards, so
// concurrent dispatches share it without locking.
//
// # Partial Results
//
// A long-running handler can publish intermediate values before its
// final result. Use DispatchPublishing with a Sink to observe them:
//
//	action.DispatchPublishing(ctx, d, Tail{Path: p}, sink)
//
// For one dispatch the caller sees partials in exactly the order the
// handler emitted them, and the final result (or failure) strictly
// last. Nothing is delivered after the terminal result; a handler that
// tries is a programming error and panics. Different dispatches
// interleave freely.
//
// A handler may return from Execute before completing and finish the
// dispatch from another goroutine. The per-request context passed to
// Dispatch is the completion handle: cancellation is cooperative, and
// a handler that never checks it simply runs to completion with its
// late results dropped.
//
// # Error Contract
//
// Every dispatch terminates in exactly one of: a final result, a typed
// failure, or an error.
//
//   - *DuplicateBindingError: registration time, fatal to configuration
//   - *UnboundActionError: no handler for the action's name; nothing
//     is invoked
//   - *HandlerExecutionError: wraps a non-nil return from Execute
//   - Typed failures (Sink.Fail) are part of the result contract and
//     reach the caller unwrapped
//
// The core never retries and never swallows an outcome; retry and
// timeout policy belong to the caller.
//
// # Raw Envelopes
//
// The core defines no wire format, but transports that receive
// serialized actions can hand raw bytes to DispatchRaw or
// DispatchRawPublishing. A Codec recognizes an envelope format via
// cheap field probing before paying for a decode; the default JSON
// codec handles:
//
//	{"action": "user/get", "payload": {"id": 42}}
//
// Handlers reachable this way are registered with RegisterJSON, which
// records how to decode the payload and encode the result. Decoded
// payloads implementing Validate() error are validated before the
// handler runs.
//
// # Hooks
//
// Hooks provide observability without coupling to specific logging or
// metrics systems. Use functional options to configure them:
//
//	d := action.NewDispatcher(reg,
//	    action.WithOnDispatch(func(ctx context.Context, name string) context.Context {
//	        return logx.WithCtx(ctx, slog.String("action", name))
//	    }),
//	    action.WithOnFailure(func(ctx context.Context, name string, err error, d time.Duration) {
//	        metrics.Incr("action.failure", "action:"+name)
//	    }),
//	)
//
// Multiple hooks of the same type are called in order.
//
// # Thread Safety
//
// Registry and Dispatcher are safe for concurrent use after
// configuration is complete. Do not call Register or RegisterJSON
// after dispatching has begun.
package action
