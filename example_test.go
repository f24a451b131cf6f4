package action_test

import (
	"context"
	"fmt"
	"log"

	"github.com/bjaus/action"
)

// GetUser asks for one user by ID.
type GetUser struct {
	ID int `json:"id"`
}

func (GetUser) ActionName() string { return "user/get" }

// User is the result of a GetUser dispatch.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Countdown counts down from N, publishing each step.
type Countdown struct {
	From int `json:"from"`
}

func (Countdown) ActionName() string { return "countdown" }

func Example() {
	reg := action.NewRegistry()
	action.MustRegister(reg, action.Func(func(ctx context.Context, act GetUser) (User, error) {
		return User{ID: act.ID, Name: "Ada"}, nil
	}))

	d := action.NewDispatcher(reg)

	user, err := action.Dispatch[User](context.Background(), d, GetUser{ID: 42})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("User %d: %s\n", user.ID, user.Name)

	// Output:
	// User 42: Ada
}

// printSink prints every result delivered for one dispatch.
type printSink struct{}

func (printSink) Publish(n int) error {
	fmt.Println("tick:", n)
	return nil
}

func (printSink) Complete(n int) error {
	fmt.Println("done:", n)
	return nil
}

func (printSink) Fail(err error) error {
	fmt.Println("failed:", err)
	return nil
}

func Example_publishing() {
	reg := action.NewRegistry()
	action.MustRegister(reg, action.HandlerFunc[Countdown, int](func(ctx context.Context, act Countdown, sink action.Sink[int]) error {
		for n := act.From; n > 0; n-- {
			if err := sink.Publish(n); err != nil {
				return err
			}
		}
		return sink.Complete(0)
	}))

	d := action.NewDispatcher(reg)

	if err := action.DispatchPublishing(context.Background(), d, Countdown{From: 3}, printSink{}); err != nil {
		log.Fatal(err)
	}

	// Output:
	// tick: 3
	// tick: 2
	// tick: 1
	// done: 0
}

func Example_raw() {
	reg := action.NewRegistry()
	if err := action.RegisterJSON(reg, action.Func(func(ctx context.Context, act GetUser) (User, error) {
		return User{ID: act.ID, Name: "Ada"}, nil
	})); err != nil {
		log.Fatal(err)
	}

	d := action.NewDispatcher(reg)

	reply, err := d.DispatchRaw(context.Background(), []byte(`{"action": "user/get", "payload": {"id": 42}}`))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(reply))

	// Output:
	// {"action":"user/get","status":"ok","result":{"id":42,"name":"Ada"}}
}

func Example_hooks() {
	reg := action.NewRegistry()
	action.MustRegister(reg, action.Func(func(ctx context.Context, act GetUser) (User, error) {
		return User{ID: act.ID, Name: "Ada"}, nil
	}))

	d := action.NewDispatcher(reg,
		action.WithOnDispatch(func(ctx context.Context, name string) context.Context {
			fmt.Println("dispatching", name)
			return ctx
		}),
	)

	if _, err := action.Dispatch[User](context.Background(), d, GetUser{ID: 42}); err != nil {
		log.Fatal(err)
	}

	// Output:
	// dispatching user/get
}
