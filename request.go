package action

import (
	"context"
	"fmt"
	"sync"
)

// reqState tracks one dispatch through its lifecycle.
type reqState int

const (
	statePending reqState = iota
	stateExecuting
	stateCompleted
	stateFailed
	// stateDetached means the caller stopped waiting (cancellation or
	// a handler-raised error already reported). Late results are
	// dropped rather than treated as contract violations.
	stateDetached
)

// delivery is one result crossing from the handler to the caller.
type delivery struct {
	partial bool
	seq     int
	value   any
	err     error
}

// request guards a single dispatch from handler invocation to its
// terminal result. It serializes emissions so the caller observes
// partials in emission order with the final result strictly last, and
// it enforces the one-terminal-call contract: emitting anything after
// Complete or Fail panics.
//
// Cancellation is cooperative. The context is checked on each
// emission; once it is cancelled the request detaches, the emission is
// dropped, and the sink call reports the context's error back to the
// handler. Partials delivered before cancellation stand.
type request struct {
	name string
	ctx  context.Context

	// emit delivers a result to the caller's sink. Nil for blocking
	// dispatches, which discard partials and read the terminal
	// outcome from the request itself.
	emit func(delivery) error

	onPublish  func(seq int)
	onComplete func()
	onFailure  func(err error)

	mu    sync.Mutex
	state reqState
	seq   int
	final any
	err   error
	done  chan struct{}
}

func newRequest(ctx context.Context, name string, emit func(delivery) error) *request {
	return &request{
		name: name,
		ctx:  ctx,
		emit: emit,
		done: make(chan struct{}),
	}
}

func (r *request) begin() {
	r.mu.Lock()
	r.state = stateExecuting
	r.mu.Unlock()
}

// gate decides whether an emission may proceed. Callers must hold
// r.mu. Emitting after the handler already terminated the dispatch is
// a programming error; emitting after the caller went away is not the
// handler's fault and reports the cancellation instead.
func (r *request) gate(op string) error {
	switch r.state {
	case stateCompleted, stateFailed:
		panic(fmt.Sprintf("action %q: %s after dispatch already terminated", r.name, op))
	case stateDetached:
		return r.err
	}
	if err := r.ctx.Err(); err != nil {
		r.state = stateDetached
		r.err = err
		close(r.done)
		r.notifyFailure(err)
		return err
	}
	return nil
}

func (r *request) publish(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.gate("Publish"); err != nil {
		return err
	}
	r.seq++
	seq := r.seq
	if r.emit != nil {
		if err := r.emit(delivery{partial: true, seq: seq, value: v}); err != nil {
			return err
		}
	}
	if r.onPublish != nil {
		r.onPublish(seq)
	}
	return nil
}

func (r *request) complete(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.gate("Complete"); err != nil {
		return err
	}
	r.state = stateCompleted
	r.final = v
	close(r.done)
	var err error
	if r.emit != nil {
		err = r.emit(delivery{value: v})
	}
	if r.onComplete != nil {
		r.onComplete()
	}
	return err
}

func (r *request) fail(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.gate("Fail"); err != nil {
		return err
	}
	r.state = stateFailed
	r.err = cause
	close(r.done)
	var err error
	if r.emit != nil {
		err = r.emit(delivery{err: cause})
	}
	r.notifyFailure(cause)
	return err
}

// abort records a handler-raised error on the dispatcher's behalf.
// Unlike fail it tolerates a dispatch that already reached a terminal
// state, since the handler may have completed before returning the
// error.
func (r *request) abort(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateCompleted, stateFailed, stateDetached:
		return
	}
	r.state = stateFailed
	r.err = cause
	close(r.done)
	if r.emit != nil {
		_ = r.emit(delivery{err: cause})
	}
	r.notifyFailure(cause)
}

// detach abandons delivery after the caller stopped waiting. It
// reports whether this call performed the transition; false means the
// dispatch already terminated and the outcome is readable.
func (r *request) detach(cause error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateCompleted, stateFailed, stateDetached:
		return false
	}
	r.state = stateDetached
	r.err = cause
	close(r.done)
	r.notifyFailure(cause)
	return true
}

func (r *request) notifyFailure(err error) {
	if r.onFailure != nil {
		r.onFailure(err)
	}
}

// outcome reads the terminal result. Valid only after done is closed.
func (r *request) outcome() (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateCompleted {
		return r.final, nil
	}
	return nil, r.err
}
