package action

import "fmt"

// DuplicateBindingError is returned by registration when the action
// name is already bound. It is a configuration error: it can only
// occur at startup, never during dispatch, and the first registration
// remains the one recorded.
type DuplicateBindingError struct {
	Name string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("action %q is already bound", e.Name)
}

// UnboundActionError is returned by dispatch when no handler is
// registered for the action's name. No handler is invoked.
type UnboundActionError struct {
	Name string
}

func (e *UnboundActionError) Error() string {
	return fmt.Sprintf("no handler bound for action %q", e.Name)
}

// HandlerExecutionError wraps an unexpected error returned by a
// handler's Execute. Typed failures delivered through Sink.Fail are
// part of the result contract and are never wrapped in this type.
type HandlerExecutionError struct {
	Name string
	Err  error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("execute action %q: %v", e.Name, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }
