package desktop

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/interact"
	"github.com/ItsNotGoodName/x-deskwm/internal/session"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testViewport = viewport.Viewport{Width: 800, Height: 600, ReservedBottom: 40, TitleHeight: 30}

// start runs the desktop until the test ends and returns a channel that
// yields Serve's result.
func start(t *testing.T, d *Desktop) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- d.Serve(ctx) }()
	t.Cleanup(cancel)

	return cancel, errC
}

func create(t *testing.T, d *Desktop, id string, g viewport.Rect, caps wm.Capabilities) {
	t.Helper()

	require.NoError(t, d.Do(context.Background(), func(tx Tx) error {
		_, err := tx.Registry.CreateWindow(wm.Spec{ID: id, Title: id, Geometry: g, Capabilities: caps})
		return err
	}))
}

func TestDo(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	start(t, d)

	errBoom := errors.New("boom")
	assert.ErrorIs(t, d.Do(context.Background(), func(tx Tx) error { return errBoom }), errBoom)

	create(t, d, "a", viewport.Rect{}, wm.DefaultCapabilities())
	windows, err := d.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "a", windows[0].ID)

	entries, err := d.Launcher(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Active)
}

func TestSetViewport(t *testing.T) {
	b := bus.New()
	d := New(b, testViewport, interact.DefaultSnapThreshold)
	var changes []wm.GeometryChanged
	bus.Subscribe(b, "test", func(ctx context.Context, event wm.GeometryChanged) error {
		changes = append(changes, event)
		return nil
	})
	start(t, d)

	create(t, d, "a", viewport.Rect{X: 500, Y: 100, Width: 200, Height: 150}, wm.DefaultCapabilities())

	small := viewport.Viewport{Width: 400, Height: 300, TitleHeight: 30}
	require.NoError(t, d.SetViewport(context.Background(), small))

	windows, err := d.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, viewport.Rect{X: 200, Y: 100, Width: 200, Height: 150}, windows[0].Geometry)
	assert.Equal(t, []wm.GeometryChanged{{WindowID: "a", Kind: wm.GeometryResize}}, changes)
}

func TestDoWithoutServe(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, d.Do(ctx, func(tx Tx) error { return nil }), context.DeadlineExceeded)
}

func TestPointerDragFocusesAndMoves(t *testing.T) {
	b := bus.New()
	d := New(b, testViewport, interact.DefaultSnapThreshold)
	var moves []wm.GeometryChanged
	bus.Subscribe(b, "test", func(ctx context.Context, event wm.GeometryChanged) error {
		moves = append(moves, event)
		return nil
	})
	tx := d.tx

	_, err := tx.Registry.CreateWindow(wm.Spec{ID: "a", Geometry: viewport.Rect{X: 100, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)
	_, err = tx.Registry.CreateWindow(wm.Spec{ID: "b", Geometry: viewport.Rect{X: 300, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "a", Handle: HandleTitle, X: 150, Y: 110}))
	focused, _ := tx.Registry.Focused()
	assert.Equal(t, "a", focused.ID)
	assert.Equal(t, interact.ModeDragging, tx.Controller.Mode())

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerMove, X: 170, Y: 130}))
	require.NoError(t, tx.Pointer(Pointer{Kind: PointerUp, X: 170, Y: 130}))

	w, _ := tx.Registry.Get("a")
	assert.Equal(t, viewport.Rect{X: 120, Y: 120, Width: 200, Height: 150}, w.Geometry)
	assert.Equal(t, []wm.GeometryChanged{{WindowID: "a", Kind: wm.GeometryMove}}, moves)
	assert.Equal(t, interact.ModeNone, tx.Controller.Mode())
}

func TestPointerResizeHandles(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	tx := d.tx

	_, err := tx.Registry.CreateWindow(wm.Spec{ID: "a", Geometry: viewport.Rect{X: 100, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "a", Handle: HandleResizeRight}))
	require.NoError(t, tx.Pointer(Pointer{Kind: PointerMove, X: 50, Y: 50}))
	require.NoError(t, tx.Pointer(Pointer{Kind: PointerUp}))

	w, _ := tx.Registry.Get("a")
	assert.Equal(t, viewport.Rect{X: 100, Y: 100, Width: 250, Height: 150}, w.Geometry)
}

func TestPointerDownOnGatedWindowOnlyFocuses(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	tx := d.tx

	_, err := tx.Registry.CreateWindow(wm.Spec{ID: "max", Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)
	_, err = tx.Registry.CreateWindow(wm.Spec{ID: "fixed", Capabilities: wm.Capabilities{Closable: true}})
	require.NoError(t, err)
	require.NoError(t, tx.Registry.ToggleMaximize("max"))

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "max", Handle: HandleTitle}))
	assert.Equal(t, interact.ModeNone, tx.Controller.Mode())
	focused, _ := tx.Registry.Focused()
	assert.Equal(t, "max", focused.ID)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "fixed", Handle: HandleResize}))
	assert.Equal(t, interact.ModeNone, tx.Controller.Mode())
	focused, _ = tx.Registry.Focused()
	assert.Equal(t, "fixed", focused.ID)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "max", Handle: HandleBody}))
	focused, _ = tx.Registry.Focused()
	assert.Equal(t, "max", focused.ID)
}

func TestPointerDownDuringInteractionKeepsFocus(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	tx := d.tx

	_, err := tx.Registry.CreateWindow(wm.Spec{ID: "a", Geometry: viewport.Rect{X: 100, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)
	_, err = tx.Registry.CreateWindow(wm.Spec{ID: "b", Geometry: viewport.Rect{X: 300, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "a", Handle: HandleTitle, X: 150, Y: 110}))
	a, _ := tx.Registry.Get("a")
	b, _ := tx.Registry.Get("b")
	revision := tx.Registry.Revision()

	for _, handle := range []Handle{HandleTitle, HandleResize, HandleBody} {
		err := tx.Pointer(Pointer{Kind: PointerDown, WindowID: "b", Handle: handle, X: 350, Y: 110})
		assert.ErrorIs(t, err, interact.ErrInteractionActive, handle)
	}

	afterA, _ := tx.Registry.Get("a")
	afterB, _ := tx.Registry.Get("b")
	assert.Equal(t, a.StackingValue, afterA.StackingValue)
	assert.Equal(t, b.StackingValue, afterB.StackingValue)
	assert.Equal(t, revision, tx.Registry.Revision())
	focused, _ := tx.Registry.Focused()
	assert.Equal(t, "a", focused.ID)
	assert.Equal(t, interact.ModeDragging, tx.Controller.Mode())
	assert.Equal(t, "a", tx.Controller.WindowID())
}

func TestPointerErrors(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	tx := d.tx

	assert.ErrorIs(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "missing", Handle: HandleTitle}), wm.ErrUnknownWindow)
	assert.ErrorIs(t, tx.Pointer(Pointer{Kind: "wheel"}), ErrUnknownPointer)
	assert.NoError(t, tx.Pointer(Pointer{Kind: PointerMove}), "hover without an interaction")
	assert.NoError(t, tx.Pointer(Pointer{Kind: PointerUp}))
	assert.NoError(t, tx.Pointer(Pointer{Kind: PointerLost}))
}

func TestPointerLostResets(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	tx := d.tx

	_, err := tx.Registry.CreateWindow(wm.Spec{ID: "a", Geometry: viewport.Rect{X: 100, Y: 100, Width: 200, Height: 150}, Capabilities: wm.DefaultCapabilities()})
	require.NoError(t, err)

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "a", Handle: HandleTitle}))
	require.NoError(t, tx.Pointer(Pointer{Kind: PointerLost}))
	assert.Equal(t, interact.ModeNone, tx.Controller.Mode())

	require.NoError(t, tx.Pointer(Pointer{Kind: PointerDown, WindowID: "a", Handle: HandleResize}))
	assert.Equal(t, interact.ModeResizing, tx.Controller.Mode())
}

func newStore(t *testing.T) session.Store {
	t.Helper()

	store, err := session.NewStore(session.NewJSON(filepath.Join(t.TempDir(), "session.json")))
	require.NoError(t, err)
	return store
}

func TestAutosaveAfterQuietPeriod(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	store := newStore(t)
	a := NewAutosave(d, store, 10*time.Millisecond)
	start(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Serve(ctx)

	create(t, d, "a", viewport.Rect{}, wm.DefaultCapabilities())

	assert.Eventually(t, func() bool {
		s, err := store.Load()
		return err == nil && len(s.Windows) == 1 && s.Windows[0].ID == "a"
	}, time.Second, 5*time.Millisecond)
}

type countingDriver struct {
	session.Driver
	writes atomic.Int32
}

func (d *countingDriver) Write(s session.Session) error {
	d.writes.Add(1)
	return d.Driver.Write(s)
}

func TestAutosaveDebouncesBurst(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	driver := &countingDriver{Driver: session.NewJSON(filepath.Join(t.TempDir(), "session.json"))}
	store, err := session.NewStore(driver)
	require.NoError(t, err)
	initial := driver.writes.Load()
	a := NewAutosave(d, store, 50*time.Millisecond)
	start(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Serve(ctx)

	for i := 0; i < 5; i++ {
		create(t, d, fmt.Sprintf("w%d", i), viewport.Rect{}, wm.DefaultCapabilities())
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return driver.writes.Load() > initial
	}, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, initial+1, driver.writes.Load(), "one save for the whole burst")

	s, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, s.Windows, 5)
}

func TestAutosaveOnStop(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	store := newStore(t)
	NewAutosave(d, store, 0)
	cancel, errC := start(t, d)

	create(t, d, "a", viewport.Rect{}, wm.DefaultCapabilities())
	create(t, d, "b", viewport.Rect{}, wm.DefaultCapabilities())

	cancel()
	assert.ErrorIs(t, <-errC, context.Canceled)

	s, err := store.Load()
	require.NoError(t, err)
	require.Len(t, s.Windows, 2)
	assert.Equal(t, "b", s.Windows[1].ID)
}

func TestRestoreAndSnapshot(t *testing.T) {
	d := New(bus.New(), testViewport, interact.DefaultSnapThreshold)
	start(t, d)

	saved := session.Session{Windows: []session.Record{
		{ID: "a", Title: "A", Left: 10, Top: 10, Width: 200, Height: 150, StackingValue: 4},
		{ID: "b", Title: "B", Left: 20, Top: 20, Width: 200, Height: 150, StackingValue: 2, Minimized: true},
	}}
	require.NoError(t, d.Restore(context.Background(), saved))

	s, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Windows, 2)
	assert.Equal(t, 4, s.Windows[0].StackingValue)
	assert.True(t, s.Windows[1].Minimized)
}
