// Package desktop hosts one window registry and serializes every access to it
// through a single goroutine.
package desktop

import (
	"context"
	"log/slog"

	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/interact"
	"github.com/ItsNotGoodName/x-deskwm/internal/launcher"
	"github.com/ItsNotGoodName/x-deskwm/internal/session"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
)

// Tx is handed to functions running on the desktop goroutine. Its fields must
// not escape the function.
type Tx struct {
	Registry   *wm.Registry
	Controller *interact.Controller
	Launcher   *launcher.Sync
}

type Desktop struct {
	log *slog.Logger
	bus *bus.Bus
	tx  Tx

	commandC chan func()
	onStop   []func(tx Tx)
}

func New(b *bus.Bus, v viewport.Viewport, snapThreshold float64) *Desktop {
	reg := wm.NewRegistry(v, b)
	return &Desktop{
		log: slog.With("package", "desktop"),
		bus: b,
		tx: Tx{
			Registry:   reg,
			Controller: interact.New(reg, b, snapThreshold),
			Launcher:   launcher.NewSync(reg),
		},
		commandC: make(chan func()),
	}
}

func (d *Desktop) String() string {
	return "desktop.Desktop"
}

func (d *Desktop) Bus() *bus.Bus {
	return d.bus
}

// OnStop registers fn to run on the desktop goroutine when Serve returns.
// It must be called before Serve.
func (d *Desktop) OnStop(fn func(tx Tx)) {
	d.onStop = append(d.onStop, fn)
}

func (d *Desktop) Serve(ctx context.Context) error {
	d.bus.SetContext(ctx)
	d.log.Debug("Desktop started")

	defer func() {
		for _, fn := range d.onStop {
			fn(d.tx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-d.commandC:
			cmd()
		}
	}
}

// Do runs fn on the desktop goroutine and waits for its result.
func (d *Desktop) Do(ctx context.Context, fn func(tx Tx) error) error {
	errC := make(chan error, 1)
	cmd := func() { errC <- fn(d.tx) }

	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.commandC <- cmd:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errC:
		return err
	}
}

func (d *Desktop) Windows(ctx context.Context) ([]wm.Window, error) {
	var windows []wm.Window
	err := d.Do(ctx, func(tx Tx) error {
		windows = tx.Registry.Windows()
		return nil
	})
	return windows, err
}

func (d *Desktop) Launcher(ctx context.Context) ([]launcher.Entry, error) {
	var entries []launcher.Entry
	err := d.Do(ctx, func(tx Tx) error {
		entries = tx.Launcher.Entries()
		return nil
	})
	return entries, err
}

// SetViewport re-fits every window to a resized surface.
func (d *Desktop) SetViewport(ctx context.Context, v viewport.Viewport) error {
	return d.Do(ctx, func(tx Tx) error {
		tx.Registry.SetViewport(v)
		return nil
	})
}

func (d *Desktop) Pointer(ctx context.Context, p Pointer) error {
	return d.Do(ctx, func(tx Tx) error {
		return tx.Pointer(p)
	})
}

func (d *Desktop) Snapshot(ctx context.Context) (session.Session, error) {
	var s session.Session
	err := d.Do(ctx, func(tx Tx) error {
		s = session.Snapshot(tx.Registry)
		return nil
	})
	return s, err
}

// Restore applies a saved session. Bad records are reported but do not stop
// the rest.
func (d *Desktop) Restore(ctx context.Context, s session.Session) error {
	return d.Do(ctx, func(tx Tx) error {
		return session.Restore(tx.Registry, s)
	})
}
