package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Bus dispatches typed events to subscribers synchronously, in subscription
// order. Each desktop owns its own Bus.
type Bus struct {
	mu   sync.RWMutex
	ctx  context.Context
	subs map[string][]func(ctx context.Context, event any)
}

func New() *Bus {
	return &Bus{
		ctx:  context.Background(),
		subs: make(map[string][]func(ctx context.Context, event any)),
	}
}

// SetContext sets the context handed to subscribers.
func (b *Bus) SetContext(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()
}

func topic[T any]() string {
	return fmt.Sprintf("%T", *new(T))
}

// Subscribe registers fn for events of type T. Errors returned by fn are
// logged and never reach the publisher.
func Subscribe[T any](b *Bus, name string, fn func(ctx context.Context, event T) error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := topic[T]()
	b.subs[key] = append(b.subs[key], func(ctx context.Context, event any) {
		if err := fn(ctx, event.(T)); err != nil {
			slog.Error("Failed to handle event", "package", "bus", "name", name, "topic", key, "error", err)
		}
	})
}

func Publish[T any](b *Bus, event T) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ctx := b.ctx
	subs := b.subs[topic[T]()]
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, event)
	}
}
