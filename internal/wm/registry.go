package wm

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
)

// Size given to windows created without a requested geometry.
const (
	DefaultWidth  = 480
	DefaultHeight = 320
)

// Registry owns every window of one desktop. It is not safe for concurrent
// use; callers serialize access (see the desktop package).
type Registry struct {
	log      *slog.Logger
	bus      *bus.Bus
	viewport viewport.Viewport

	windows  map[string]*Window
	highest  int
	seq      int
	revision uint64
	focused  string
}

func NewRegistry(v viewport.Viewport, b *bus.Bus) *Registry {
	return &Registry{
		log:      slog.With("package", "wm"),
		bus:      b,
		viewport: v,
		windows:  make(map[string]*Window),
	}
}

func (r *Registry) Viewport() viewport.Viewport {
	return r.viewport
}

// SetViewport re-fits every window to a new surface. Windows whose geometry
// or restore snapshot moved get a resize event.
func (r *Registry) SetViewport(v viewport.Viewport) {
	r.viewport = v

	var changed []*Window
	for _, w := range r.windows {
		geometry, snapshot := w.Geometry, w.RestoreSnapshot
		if w.Lifecycle == Maximized {
			w.Geometry = v.Usable()
			w.RestoreSnapshot = v.Fit(w.RestoreSnapshot, w.MinWidth, w.MinHeight)
		} else {
			w.Geometry = v.Fit(w.Geometry, w.MinWidth, w.MinHeight)
		}
		if w.Geometry != geometry || w.RestoreSnapshot != snapshot {
			changed = append(changed, w)
		}
	}

	slices.SortFunc(changed, func(a, b *Window) int { return a.seq - b.seq })
	for _, w := range changed {
		bus.Publish(r.bus, GeometryChanged{WindowID: w.ID, Kind: GeometryResize})
	}

	r.commit()
}

// HighestStackingValue never decreases.
func (r *Registry) HighestStackingValue() int {
	return r.highest
}

// Revision changes after every mutation.
func (r *Registry) Revision() uint64 {
	return r.revision
}

func (r *Registry) Len() int {
	return len(r.windows)
}

func (r *Registry) Get(id string) (Window, bool) {
	w, ok := r.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Windows returns copies of all windows in creation order.
func (r *Registry) Windows() []Window {
	windows := make([]Window, 0, len(r.windows))
	for _, w := range r.windows {
		windows = append(windows, *w)
	}
	slices.SortFunc(windows, func(a, b Window) int { return a.seq - b.seq })
	return windows
}

// Focused returns the visible window with the highest stacking value.
func (r *Registry) Focused() (Window, bool) {
	var found *Window
	for _, w := range r.windows {
		if !w.Visible() {
			continue
		}
		if found == nil || w.StackingValue > found.StackingValue {
			found = w
		}
	}
	if found == nil {
		return Window{}, false
	}
	return *found, true
}

func (r *Registry) CreateWindow(spec Spec) (Window, error) {
	if spec.ID == "" {
		return Window{}, ErrEmptyID
	}
	if _, ok := r.windows[spec.ID]; ok {
		return Window{}, fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
	}

	geometry := spec.Geometry
	if geometry.IsZero() {
		at := r.viewport.Cascade(len(r.windows))
		geometry = viewport.Rect{
			X:      at.X,
			Y:      at.Y,
			Width:  math.Max(DefaultWidth, spec.MinWidth),
			Height: math.Max(DefaultHeight, spec.MinHeight),
		}
	}

	r.seq++
	w := &Window{
		ID:           spec.ID,
		Title:        spec.Title,
		Geometry:     r.viewport.Clamp(geometry, spec.MinWidth, spec.MinHeight),
		MinWidth:     spec.MinWidth,
		MinHeight:    spec.MinHeight,
		Capabilities: spec.Capabilities,
		Lifecycle:    Normal,
		seq:          r.seq,
	}
	if spec.StackingValue == nil {
		w.StackingValue = r.next()
	} else {
		w.StackingValue = r.claim(w.ID, *spec.StackingValue)
	}
	r.windows[w.ID] = w

	r.log.Debug("Window created", "id", w.ID, "stacking", w.StackingValue)

	bus.Publish(r.bus, WindowCreated{WindowID: w.ID})
	r.commit()

	return *w, nil
}

// Focus brings the window to the front, restoring it first when minimized.
// Focusing the focused window leaves its stacking value alone.
func (r *Registry) Focus(id string) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("focus %s: %w", id, ErrUnknownWindow)
	}

	if w.Lifecycle == Minimized {
		r.transition(w, Normal)
	}
	if w.StackingValue < r.highest {
		w.StackingValue = r.next()
	}

	r.commit()
	return nil
}

// Restore clears Minimized; it behaves exactly like Focus.
func (r *Registry) Restore(id string) error {
	return r.Focus(id)
}

// Minimize hides the window. Focus falls to the visible window with the
// highest stacking value without touching any stacking value.
func (r *Registry) Minimize(id string) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("minimize %s: %w", id, ErrUnknownWindow)
	}
	if !w.Capabilities.Minimizable {
		r.log.Debug("Minimize denied", "id", id)
		return nil
	}
	if w.Lifecycle == Minimized {
		return nil
	}

	if w.Lifecycle == Maximized {
		w.Geometry = w.RestoreSnapshot
	}
	r.transition(w, Minimized)

	r.commit()
	return nil
}

// Close removes the window. Unknown ids are ignored.
func (r *Registry) Close(id string) error {
	w, ok := r.windows[id]
	if !ok {
		return nil
	}
	if !w.Capabilities.Closable {
		r.log.Debug("Close denied", "id", id)
		return nil
	}

	delete(r.windows, id)
	r.transition(w, Closed)

	r.commit()
	return nil
}

// ToggleMaximize flips between Normal and Maximized. A minimized window is
// maximized and brought to the front.
func (r *Registry) ToggleMaximize(id string) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("toggle maximize %s: %w", id, ErrUnknownWindow)
	}
	if !w.Capabilities.Resizable {
		r.log.Debug("Maximize denied", "id", id)
		return nil
	}

	switch w.Lifecycle {
	case Maximized:
		w.Geometry = w.RestoreSnapshot
		r.transition(w, Normal)
	case Minimized:
		r.maximize(w)
		if w.StackingValue < r.highest {
			w.StackingValue = r.next()
		}
	default:
		r.maximize(w)
	}

	r.commit()
	return nil
}

// SetGeometry replaces the geometry of a window without publishing an event.
// Minimum sizes still hold; placement is the caller's job.
func (r *Registry) SetGeometry(id string, g viewport.Rect) (Window, error) {
	w, ok := r.windows[id]
	if !ok {
		return Window{}, fmt.Errorf("set geometry %s: %w", id, ErrUnknownWindow)
	}

	g.Width = math.Max(g.Width, w.MinWidth)
	g.Height = math.Max(g.Height, w.MinHeight)
	w.Geometry = g

	r.commit()
	return *w, nil
}

// Tile arranges Normal windows in a grid over the usable area, in creation
// order. Minimized and maximized windows keep their place. It returns the
// number of windows tiled.
func (r *Registry) Tile() int {
	var windows []*Window
	for _, w := range r.windows {
		if w.Lifecycle == Normal {
			windows = append(windows, w)
		}
	}
	slices.SortFunc(windows, func(a, b *Window) int { return a.seq - b.seq })

	for i, cell := range r.viewport.Grid(len(windows)) {
		w := windows[i]
		g := r.viewport.Fit(cell, w.MinWidth, w.MinHeight)
		if g == w.Geometry {
			continue
		}
		w.Geometry = g
		bus.Publish(r.bus, GeometryChanged{WindowID: w.ID, Kind: GeometryResize})
	}

	r.commit()
	return len(windows)
}

// State is a bulk description of a window used when restoring sessions.
type State struct {
	Title           string
	Geometry        viewport.Rect
	StackingValue   int
	Minimized       bool
	Maximized       bool
	RestoreSnapshot *viewport.Rect
}

// ApplyState overwrites a window with s. The maximize state is applied before
// the minimize state, since entering Maximized clears Minimized. Capabilities
// are not checked.
func (r *Registry) ApplyState(id string, s State) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("apply state %s: %w", id, ErrUnknownWindow)
	}

	from := w.Lifecycle

	w.Title = s.Title
	w.Geometry = r.viewport.Fit(s.Geometry, w.MinWidth, w.MinHeight)
	if s.RestoreSnapshot != nil {
		w.RestoreSnapshot, w.HasSnapshot = *s.RestoreSnapshot, true
	} else {
		w.RestoreSnapshot, w.HasSnapshot = viewport.Rect{}, false
	}
	if s.StackingValue != w.StackingValue {
		w.StackingValue = r.claim(w.ID, s.StackingValue)
	}

	if s.Maximized {
		if !w.HasSnapshot {
			w.RestoreSnapshot, w.HasSnapshot = w.Geometry, true
		}
		w.Geometry = r.viewport.Usable()
		w.Lifecycle = Maximized
	} else if w.Lifecycle == Maximized {
		w.Lifecycle = Normal
	}

	if s.Minimized {
		if w.Lifecycle == Maximized {
			w.Geometry = w.RestoreSnapshot
		}
		w.Lifecycle = Minimized
	} else if w.Lifecycle == Minimized {
		w.Lifecycle = Normal
	}

	if from != w.Lifecycle {
		bus.Publish(r.bus, LifecycleChanged{WindowID: w.ID, From: from, To: w.Lifecycle})
	}

	r.commit()
	return nil
}

func (r *Registry) maximize(w *Window) {
	w.RestoreSnapshot, w.HasSnapshot = w.Geometry, true
	w.Geometry = r.viewport.Usable()
	r.transition(w, Maximized)
}

func (r *Registry) transition(w *Window, to Lifecycle) {
	from := w.Lifecycle
	w.Lifecycle = to

	r.log.Debug("Window lifecycle changed", "id", w.ID, "from", from, "to", to)
	bus.Publish(r.bus, LifecycleChanged{WindowID: w.ID, From: from, To: to})
}

func (r *Registry) next() int {
	r.highest++
	return r.highest
}

// claim returns value if no other window holds it, otherwise a fresh front
// value. The counter is raised to cover value.
func (r *Registry) claim(id string, value int) int {
	for _, other := range r.windows {
		if other.ID != id && other.StackingValue == value {
			r.log.Debug("Stacking value taken", "id", id, "value", value, "holder", other.ID)
			return r.next()
		}
	}
	if value > r.highest {
		r.highest = value
	}
	return value
}

// commit runs after every mutation.
func (r *Registry) commit() {
	r.revision++

	focused := ""
	if w, ok := r.Focused(); ok {
		focused = w.ID
	}
	if focused != r.focused {
		previous := r.focused
		r.focused = focused
		bus.Publish(r.bus, FocusChanged{Previous: previous, Current: focused})
	}
}
