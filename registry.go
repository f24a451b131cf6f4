package action

import (
	"context"
	"encoding/json"
	"fmt"
)

// invoker wraps a typed handler so bindings of different action and
// result types can share a single table.
type invoker func(ctx context.Context, act Action, req *request) error

// binding pairs an action name with its handler invoker. The decode
// and encode functions are set only for bindings registered through
// RegisterJSON and are used by the raw envelope layer.
type binding struct {
	name   string
	invoke invoker
	decode func(payload json.RawMessage) (Action, error)
	encode func(v any) (json.RawMessage, error)
}

// Registry maps action names to their bound handlers. At most one
// handler per action type; registering a second one fails with
// *DuplicateBindingError and leaves the first binding in place.
//
// Registration happens once, at startup, before any dispatch. After
// configuration the table is read-only and safe for concurrent lookups
// from simultaneous dispatches. Do not register after dispatching has
// begun.
type Registry struct {
	bindings map[string]*binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*binding)}
}

// Register binds h as the handler for action type A. The registry key
// is taken from A's zero value, so ActionName must not depend on the
// action's contents.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
//
// Example:
//
//	action.Register(reg, &GetUserHandler{store: store})
//	action.Register(reg, &DeleteUserHandler{store: store})
func Register[A Action, R any](reg *Registry, h Handler[A, R]) error {
	var zero A
	return reg.add(&binding{
		name:   zero.ActionName(),
		invoke: wrap(h),
	})
}

// MustRegister is Register for startup paths where a duplicate binding
// is fatal configuration. It panics on error.
func MustRegister[A Action, R any](reg *Registry, h Handler[A, R]) {
	if err := Register(reg, h); err != nil {
		panic(err)
	}
}

// RegisterFunc is a convenience function for registering a plain
// request-response function. Equivalent to Register(reg, Func(fn)).
//
//	action.RegisterFunc(reg, func(ctx context.Context, act Ping) (Pong, error) {
//	    return Pong{}, nil
//	})
func RegisterFunc[A Action, R any](reg *Registry, fn func(ctx context.Context, act A) (R, error)) error {
	return Register(reg, Func(fn))
}

// RegisterJSON binds h like Register and additionally records JSON
// decode and encode functions for the binding, making the action
// dispatchable from a serialized envelope via Dispatcher.DispatchRaw
// and DispatchRawPublishing.
//
// Decoded payloads that implement Validate() error are validated
// before the handler runs; a validation failure never invokes the
// handler.
func RegisterJSON[A Action, R any](reg *Registry, h Handler[A, R]) error {
	var zero A
	return reg.add(&binding{
		name:   zero.ActionName(),
		invoke: wrap(h),
		decode: decodeJSON[A],
		encode: func(v any) (json.RawMessage, error) {
			return json.Marshal(v)
		},
	})
}

// wrap erases the handler's type parameters so it can be stored in the
// binding table. The assertion fails only when two distinct action
// types share an ActionName, which is a registration mistake.
func wrap[A Action, R any](h Handler[A, R]) invoker {
	return func(ctx context.Context, act Action, req *request) error {
		a, ok := act.(A)
		if !ok {
			return fmt.Errorf("action %q dispatched as %T, registered for %T", act.ActionName(), act, a)
		}
		return h.Execute(ctx, a, typedSink[R]{req: req})
	}
}

// typedSink adapts the untyped per-request guard to the handler's
// result type.
type typedSink[R any] struct {
	req *request
}

func (s typedSink[R]) Publish(r R) error    { return s.req.publish(r) }
func (s typedSink[R]) Complete(r R) error   { return s.req.complete(r) }
func (s typedSink[R]) Fail(err error) error { return s.req.fail(err) }

func (r *Registry) add(b *binding) error {
	if _, ok := r.bindings[b.name]; ok {
		return &DuplicateBindingError{Name: b.name}
	}
	r.bindings[b.name] = b
	return nil
}

func (r *Registry) lookup(name string) (*binding, error) {
	b, ok := r.bindings[name]
	if !ok {
		return nil, &UnboundActionError{Name: name}
	}
	return b, nil
}
