package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrUnknownEnvelope is returned when no codec recognizes a raw
// message.
var ErrUnknownEnvelope = errors.New("no codec recognized the message")

// validatable is the interface for payload validation.
// Compatible with github.com/go-ozzo/ozzo-validation/v4.
type validatable interface {
	Validate() error
}

// Envelope is the transport-neutral form of a serialized action: the
// registry key plus the undecoded payload.
type Envelope struct {
	// Action is the registry key identifying the action type.
	Action string

	// Payload is the raw JSON to decode into the action type.
	Payload json.RawMessage
}

// Codec recognizes and decodes one serialized envelope format. The
// dispatch core does not define a wire format; a Codec is the opaque
// seam through which a transport hands raw bytes to the dispatcher.
//
// Detect is cheap field probing so the dispatcher can skip codecs
// whose format doesn't match before paying for a full decode.
type Codec interface {
	// Name returns the codec identifier for error messages.
	Name() string

	// Detect reports whether raw looks like this codec's format.
	Detect(raw []byte) bool

	// Decode parses raw into an Envelope.
	Decode(raw []byte) (Envelope, error)
}

// CodecFunc creates a Codec from a name, detect function, and decode
// function. Use for simple codecs that don't need a struct:
//
//	action.CodecFunc("legacy",
//	    func(raw []byte) bool { return gjson.GetBytes(raw, "cmd").Exists() },
//	    func(raw []byte) (action.Envelope, error) {
//	        // decode logic
//	    },
//	)
func CodecFunc(name string, detect func([]byte) bool, decode func([]byte) (Envelope, error)) Codec {
	return &codecFunc{name: name, detect: detect, decode: decode}
}

type codecFunc struct {
	name   string
	detect func([]byte) bool
	decode func([]byte) (Envelope, error)
}

func (c *codecFunc) Name() string                        { return c.name }
func (c *codecFunc) Detect(raw []byte) bool              { return c.detect(raw) }
func (c *codecFunc) Decode(raw []byte) (Envelope, error) { return c.decode(raw) }

// JSONCodec returns the default codec for envelopes of the form
//
//	{"action": "user/get", "payload": {"id": 42}}
//
// The payload field may be absent for actions without parameters.
func JSONCodec() Codec {
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Detect(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	return gjson.GetBytes(raw, "action").Type == gjson.String
}

func (jsonCodec) Decode(raw []byte) (Envelope, error) {
	name := gjson.GetBytes(raw, "action")
	if name.Type != gjson.String || name.Str == "" {
		return Envelope{}, errors.New("missing action field")
	}
	env := Envelope{Action: name.Str}
	if payload := gjson.GetBytes(raw, "payload"); payload.Exists() {
		env.Payload = json.RawMessage(payload.Raw)
	}
	return env, nil
}

// RawSink receives encoded reply envelopes for one raw dispatch, in
// emission order. The envelope's status field distinguishes partial,
// final, and failure replies.
type RawSink interface {
	Send(ctx context.Context, reply []byte) error
}

// RawSinkFunc is a function adapter for RawSink.
type RawSinkFunc func(ctx context.Context, reply []byte) error

// Send implements the RawSink interface.
func (f RawSinkFunc) Send(ctx context.Context, reply []byte) error { return f(ctx, reply) }

// DispatchRaw decodes a serialized action envelope, dispatches it, and
// blocks until the handler terminates, returning the encoded reply.
// The action must have been registered with RegisterJSON.
//
// A typed handler failure is part of the reply contract: it produces
// an error reply and a nil Go error. Unrecognized envelopes, decode
// and validation failures, unbound actions, handler-raised errors, and
// cancellation are returned as errors with no reply.
//
// Reply envelopes:
//
//	{"action": "user/get", "status": "ok", "result": {...}}
//	{"action": "user/get", "status": "error", "error": "..."}
func (d *Dispatcher) DispatchRaw(ctx context.Context, raw []byte) ([]byte, error) {
	b, act, err := d.decodeRaw(ctx, raw)
	if err != nil {
		return nil, err
	}
	s, err := d.await(ctx, b, act)
	if err != nil {
		return nil, err
	}
	if s.failure != nil {
		return failureReply(b.name, s.failure)
	}
	return finalReply(b.name, b, s.value)
}

// DispatchRawPublishing decodes a serialized action envelope and
// dispatches it, delivering encoded partial, final, and failure
// replies to sink in emission order. Partial replies carry a 1-based
// seq field:
//
//	{"action": "log/tail", "status": "partial", "seq": 1, "result": {...}}
//
// Like DispatchPublishing, it returns once Execute returns; an
// asynchronous handler keeps delivering to sink afterwards.
func (d *Dispatcher) DispatchRawPublishing(ctx context.Context, raw []byte, sink RawSink) error {
	b, act, err := d.decodeRaw(ctx, raw)
	if err != nil {
		return err
	}
	ctx = d.callOnDispatch(ctx, b.name)
	req := d.newRequest(ctx, b.name, func(del delivery) error {
		var reply []byte
		var rerr error
		switch {
		case del.err != nil:
			reply, rerr = failureReply(b.name, del.err)
		case del.partial:
			reply, rerr = partialReply(b.name, b, del.seq, del.value)
		default:
			reply, rerr = finalReply(b.name, b, del.value)
		}
		if rerr != nil {
			return rerr
		}
		return sink.Send(ctx, reply)
	})
	return d.run(ctx, b, act, req)
}

// decodeRaw matches a codec, decodes the envelope, resolves the
// binding, and reconstructs the typed action.
func (d *Dispatcher) decodeRaw(ctx context.Context, raw []byte) (*binding, Action, error) {
	env, err := d.decodeEnvelope(raw)
	if err != nil {
		return nil, nil, err
	}
	b, err := d.registry.lookup(env.Action)
	if err != nil {
		d.callOnUnbound(ctx, env.Action)
		return nil, nil, err
	}
	if b.decode == nil {
		return nil, nil, fmt.Errorf("action %q was not registered for raw dispatch", env.Action)
	}
	act, err := b.decode(env.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("decode action %q: %w", env.Action, err)
	}
	return b, act, nil
}

func (d *Dispatcher) decodeEnvelope(raw []byte) (Envelope, error) {
	for _, c := range d.codecs {
		if !c.Detect(raw) {
			continue
		}
		env, err := c.Decode(raw)
		if err != nil {
			return Envelope{}, fmt.Errorf("codec %s: %w", c.Name(), err)
		}
		return env, nil
	}
	return Envelope{}, ErrUnknownEnvelope
}

// decodeJSON unmarshals a payload into the action type and validates
// it when the type implements Validate. The value and pointer forms
// are both checked, matching how validation methods are commonly
// declared.
func decodeJSON[A Action](payload json.RawMessage) (Action, error) {
	var a A
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, err
		}
	}
	if v, ok := any(a).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	} else if v, ok := any(&a).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func replyBase(name, status string) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "action", name)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "status", status)
}

func finalReply(name string, b *binding, v any) ([]byte, error) {
	res, err := b.encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode result for action %q: %w", name, err)
	}
	out, err := replyBase(name, "ok")
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "result", res)
}

func partialReply(name string, b *binding, seq int, v any) ([]byte, error) {
	res, err := b.encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode result for action %q: %w", name, err)
	}
	out, err := replyBase(name, "partial")
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetBytes(out, "seq", seq)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "result", res)
}

func failureReply(name string, cause error) ([]byte, error) {
	out, err := replyBase(name, "error")
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "error", cause.Error())
}
