package action

import (
	"context"
	"errors"
	"testing"
)

type getUser struct {
	ID int `json:"id"`
}

func (getUser) ActionName() string { return "user/get" }

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type getUserHandler struct {
	calls int
	fail  error
}

func (h *getUserHandler) Execute(ctx context.Context, act getUser, sink Sink[user]) error {
	h.calls++
	if h.fail != nil {
		return sink.Fail(h.fail)
	}
	return sink.Complete(user{ID: act.ID, Name: "Ada"})
}

func TestRegistry_Register(t *testing.T) {
	t.Run("binds a handler", func(t *testing.T) {
		reg := NewRegistry()
		if err := Register(reg, &getUserHandler{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := reg.lookup("user/get"); err != nil {
			t.Errorf("lookup failed: %v", err)
		}
	})

	t.Run("rejects a duplicate binding", func(t *testing.T) {
		reg := NewRegistry()
		if err := Register(reg, &getUserHandler{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := Register(reg, &getUserHandler{})
		var dup *DuplicateBindingError
		if !errors.As(err, &dup) {
			t.Fatalf("error = %v, want *DuplicateBindingError", err)
		}
		if dup.Name != "user/get" {
			t.Errorf("Name = %q, want %q", dup.Name, "user/get")
		}
	})

	t.Run("first binding stays recorded", func(t *testing.T) {
		reg := NewRegistry()
		first := &getUserHandler{}
		second := &getUserHandler{}
		_ = Register(reg, first)
		_ = Register(reg, second)

		d := NewDispatcher(reg)
		if _, err := Dispatch[user](context.Background(), d, getUser{ID: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.calls != 1 {
			t.Errorf("first.calls = %d, want 1", first.calls)
		}
		if second.calls != 0 {
			t.Errorf("second.calls = %d, want 0", second.calls)
		}
	})
}

func TestRegistry_Lookup(t *testing.T) {
	t.Run("unbound name", func(t *testing.T) {
		reg := NewRegistry()

		_, err := reg.lookup("user/get")
		var unbound *UnboundActionError
		if !errors.As(err, &unbound) {
			t.Fatalf("error = %v, want *UnboundActionError", err)
		}
		if unbound.Name != "user/get" {
			t.Errorf("Name = %q, want %q", unbound.Name, "user/get")
		}
	})
}

func TestMustRegister(t *testing.T) {
	t.Run("panics on duplicate", func(t *testing.T) {
		reg := NewRegistry()
		MustRegister(reg, &getUserHandler{})

		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		MustRegister(reg, &getUserHandler{})
	})
}

func TestRegisterFunc(t *testing.T) {
	reg := NewRegistry()
	var called bool
	err := RegisterFunc(reg, func(ctx context.Context, act getUser) (user, error) {
		called = true
		return user{ID: act.ID}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := NewDispatcher(reg)
	u, err := Dispatch[user](context.Background(), d, getUser{ID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler func was not called")
	}
	if u.ID != 7 {
		t.Errorf("u.ID = %d, want 7", u.ID)
	}
}
