package sutureext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/thejerf/suture/v4"
)

func TestSanitizeError(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, SanitizeError(ctx, nil))

	errBoom := errors.New("boom")
	assert.Equal(t, errBoom, SanitizeError(ctx, errBoom))

	err := SanitizeError(ctx, fmt.Errorf("dial: %w", context.Canceled))
	assert.False(t, errors.Is(err, context.Canceled), "live context must not look like a clean stop")
	assert.EqualError(t, err, "dial: context canceled")

	err = SanitizeError(ctx, errors.Join(context.DeadlineExceeded, suture.ErrDoNotRestart))
	assert.ErrorIs(t, err, suture.ErrDoNotRestart)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Equal(t, context.Canceled, SanitizeError(cancelled, errBoom))
}

func TestSupervisorRunsServiceFunc(t *testing.T) {
	super := New("test")

	ranC := make(chan struct{})
	Add(super, NewServiceFunc("once", func(ctx context.Context) error {
		close(ranC)
		return suture.ErrDoNotRestart
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errC := super.ServeBackground(ctx)

	select {
	case <-ranC:
	case <-time.After(time.Second):
		t.Fatal("service did not run")
	}

	cancel()
	select {
	case <-errC:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestServiceFuncString(t *testing.T) {
	assert.Equal(t, "restore", NewServiceFunc("restore", nil).String())
}
