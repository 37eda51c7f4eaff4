package desktop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/core"
	"github.com/ItsNotGoodName/x-deskwm/internal/session"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
)

// Autosave writes the session after the desktop has been quiet for the
// configured interval, and once more when the desktop stops.
type Autosave struct {
	log      *slog.Logger
	desktop  *Desktop
	store    session.Store
	interval time.Duration

	dirty atomic.Bool
	flagC chan struct{}
}

func NewAutosave(d *Desktop, store session.Store, interval time.Duration) *Autosave {
	a := &Autosave{
		log:      slog.With("package", "desktop", "service", "autosave"),
		desktop:  d,
		store:    store,
		interval: interval,
		flagC:    make(chan struct{}, 1),
	}

	b := d.Bus()
	bus.Subscribe(b, "autosave", func(ctx context.Context, event wm.WindowCreated) error { a.mark(); return nil })
	bus.Subscribe(b, "autosave", func(ctx context.Context, event wm.GeometryChanged) error { a.mark(); return nil })
	bus.Subscribe(b, "autosave", func(ctx context.Context, event wm.LifecycleChanged) error { a.mark(); return nil })
	bus.Subscribe(b, "autosave", func(ctx context.Context, event wm.FocusChanged) error { a.mark(); return nil })

	d.OnStop(func(tx Tx) {
		if !a.dirty.Load() {
			return
		}
		if err := a.write(session.Snapshot(tx.Registry)); err != nil {
			a.log.Error("Failed to save session on stop", "error", err)
		}
	})

	return a
}

func (a *Autosave) String() string {
	return "desktop.Autosave"
}

func (a *Autosave) mark() {
	a.dirty.Store(true)
	core.FlagChannel(a.flagC)
}

func (a *Autosave) Serve(ctx context.Context) error {
	if a.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	timer := time.NewTimer(a.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.flagC:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(a.interval)
		case <-timer.C:
			if err := a.Save(ctx); err != nil {
				a.log.Error("Failed to save session", "error", err)
			}
		}
	}
}

// Save writes the current session now.
func (a *Autosave) Save(ctx context.Context) error {
	s, err := a.desktop.Snapshot(ctx)
	if err != nil {
		return err
	}

	return a.write(s)
}

func (a *Autosave) write(s session.Session) error {
	a.dirty.Store(false)
	if err := a.store.Save(s); err != nil {
		a.dirty.Store(true)
		return err
	}

	a.log.Debug("Session saved", "windows", len(s.Windows))
	return nil
}
