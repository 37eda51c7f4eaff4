package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }
type pong struct{ S string }

func TestPublishByType(t *testing.T) {
	b := New()

	var pings []int
	var pongs []string
	Subscribe(b, "pings", func(ctx context.Context, event ping) error {
		pings = append(pings, event.N)
		return nil
	})
	Subscribe(b, "pongs", func(ctx context.Context, event pong) error {
		pongs = append(pongs, event.S)
		return nil
	})

	Publish(b, ping{N: 1})
	Publish(b, pong{S: "a"})
	Publish(b, ping{N: 2})

	assert.Equal(t, []int{1, 2}, pings)
	assert.Equal(t, []string{"a"}, pongs)
}

func TestSubscriberErrorDoesNotStopOthers(t *testing.T) {
	b := New()

	calls := 0
	Subscribe(b, "failing", func(ctx context.Context, event ping) error {
		calls++
		return errors.New("boom")
	})
	Subscribe(b, "counting", func(ctx context.Context, event ping) error {
		calls++
		return nil
	})

	Publish(b, ping{})

	assert.Equal(t, 2, calls)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()

	called := false
	Subscribe(a, "a", func(ctx context.Context, event ping) error {
		called = true
		return nil
	})

	Publish(b, ping{})
	assert.False(t, called)

	var nilBus *Bus
	Publish(nilBus, ping{})
}

type ctxKey struct{}

func TestSetContext(t *testing.T) {
	b := New()
	b.SetContext(context.WithValue(context.Background(), ctxKey{}, "desk"))

	var got any
	Subscribe(b, "ctx", func(ctx context.Context, event ping) error {
		got = ctx.Value(ctxKey{})
		return nil
	})
	Publish(b, ping{})

	assert.Equal(t, "desk", got)
}
