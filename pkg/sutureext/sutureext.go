// Package sutureext wires suture supervisors into slog.
package sutureext

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thejerf/suture/v4"
)

// New returns a supervisor that logs its events.
func New(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: EventHook(slog.With("package", "suture")),
	})
}

func EventHook(log *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			log.Warn("Service failed to stop in time", "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventServicePanic:
			log.Error("Service panicked", "supervisor", e.SupervisorName, "service", e.ServiceName, "panic", e.PanicMsg)
			log.Debug(e.Stacktrace)
		case suture.EventServiceTerminate:
			log.Error("Service failed", "supervisor", e.SupervisorName, "service", e.ServiceName, "error", e.Err, "restarting", e.Restarting)
		case suture.EventBackoff:
			log.Warn("Too many service failures, backing off", "supervisor", e.SupervisorName)
		case suture.EventResume:
			log.Info("Resuming after backoff", "supervisor", e.SupervisorName)
		default:
			log.Warn("Unknown supervisor event", "type", int(e.Type()), "event", e.String())
		}
	}
}

// Service forces the use of the String method, which names the service in
// supervisor logs.
type Service interface {
	String() string
	suture.Service
}

func Add(super *suture.Supervisor, services ...Service) {
	for _, service := range services {
		super.Add(sanitizeService{Service: service})
	}
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError hides context errors returned while ctx is still alive.
// Suture treats a context error as a clean stop and would not restart the
// service.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errs := []error{errors.New(err.Error())}
	if errors.Is(err, suture.ErrDoNotRestart) {
		errs = append(errs, suture.ErrDoNotRestart)
	}
	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		errs = append(errs, suture.ErrTerminateSupervisorTree)
	}
	return errors.Join(errs...)
}

type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{
		name: name,
		fn:   fn,
	}
}

func (s ServiceFunc) String() string {
	return s.name
}

func (s ServiceFunc) Serve(ctx context.Context) error {
	return s.fn(ctx)
}
