// Package interact turns a normalized pointer stream into window moves and
// resizes. One interaction runs at a time across the whole desktop.
package interact

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ItsNotGoodName/x-deskwm/internal/bus"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
)

// DefaultSnapThreshold is the distance at which a dragged edge snaps.
const DefaultSnapThreshold = 15

var (
	ErrInteractionActive = errors.New("interaction already active")
	ErrNoInteraction     = errors.New("no matching interaction active")
	ErrMaximized         = errors.New("window is maximized")
	ErrCapabilityDenied  = errors.New("window is not resizable")
)

type Mode int

const (
	ModeNone Mode = iota
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// Edge is the resize handle being dragged. All handles keep the top-left
// corner in place.
type Edge int

const (
	EdgeBottomRight Edge = iota
	EdgeRight
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeBottomRight:
		return "bottom-right"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Target is the registry surface the controller mutates.
type Target interface {
	Get(id string) (wm.Window, bool)
	SetGeometry(id string, g viewport.Rect) (wm.Window, error)
	Viewport() viewport.Viewport
}

type Controller struct {
	log    *slog.Logger
	target Target
	bus    *bus.Bus
	snap   float64

	mode     Mode
	windowID string
	edge     Edge
	origin   viewport.Point
	start    viewport.Rect
}

func New(target Target, b *bus.Bus, snapThreshold float64) *Controller {
	return &Controller{
		log:    slog.With("package", "interact"),
		target: target,
		bus:    b,
		snap:   snapThreshold,
	}
}

func (c *Controller) Mode() Mode {
	return c.mode
}

// WindowID returns the window of the active interaction.
func (c *Controller) WindowID() string {
	return c.windowID
}

func (c *Controller) BeginDrag(id string, at viewport.Point) error {
	w, err := c.begin(id)
	if err != nil {
		return err
	}

	c.start, c.origin = w.Geometry, at
	c.mode, c.windowID = ModeDragging, id

	c.log.Debug("Drag started", "id", id)
	return nil
}

// UpdateDrag moves the window live: snap first, then clamp.
func (c *Controller) UpdateDrag(at viewport.Point) error {
	if c.mode != ModeDragging {
		return ErrNoInteraction
	}
	w, ok := c.target.Get(c.windowID)
	if !ok {
		return c.lost()
	}
	if !movable(w) {
		return nil
	}

	v := c.target.Viewport()
	candidate := c.start
	candidate.X += at.X - c.origin.X
	candidate.Y += at.Y - c.origin.Y

	g := v.ClampDrag(v.Snap(candidate, c.start, c.snap))

	_, err := c.target.SetGeometry(c.windowID, g)
	return err
}

func (c *Controller) EndDrag() error {
	if c.mode != ModeDragging {
		return ErrNoInteraction
	}
	c.finish()
	return nil
}

// BeginResize starts a resize from the bottom-right handle.
func (c *Controller) BeginResize(id string, at viewport.Point) error {
	return c.BeginResizeEdge(id, EdgeBottomRight, at)
}

func (c *Controller) BeginResizeEdge(id string, edge Edge, at viewport.Point) error {
	w, err := c.begin(id)
	if err != nil {
		return err
	}
	if !w.Capabilities.Resizable {
		return fmt.Errorf("resize %s: %w", id, ErrCapabilityDenied)
	}

	c.start, c.origin = w.Geometry, at
	c.mode, c.windowID, c.edge = ModeResizing, id, edge

	c.log.Debug("Resize started", "id", id, "edge", edge)
	return nil
}

// UpdateResize grows or shrinks the window from its top-left corner, never
// below its minimum size and never past the usable area.
func (c *Controller) UpdateResize(at viewport.Point) error {
	if c.mode != ModeResizing {
		return ErrNoInteraction
	}
	w, ok := c.target.Get(c.windowID)
	if !ok {
		return c.lost()
	}
	if !movable(w) {
		return nil
	}

	u := c.target.Viewport().Usable()
	g := c.start

	if c.edge != EdgeBottom {
		g.Width = math.Max(w.MinWidth, c.start.Width+at.X-c.origin.X)
		g.Width = math.Min(g.Width, u.Right()-g.X)
	}
	if c.edge != EdgeRight {
		g.Height = math.Max(w.MinHeight, c.start.Height+at.Y-c.origin.Y)
		g.Height = math.Min(g.Height, u.Bottom()-g.Y)
	}

	_, err := c.target.SetGeometry(c.windowID, g)
	return err
}

func (c *Controller) EndResize() error {
	if c.mode != ModeResizing {
		return ErrNoInteraction
	}
	c.finish()
	return nil
}

// Reset ends whatever interaction is active, keeping the geometry reached so
// far. It is the way out when the pointer stream is lost without an end event.
// It reports whether an interaction was active.
func (c *Controller) Reset() bool {
	if c.mode == ModeNone {
		return false
	}

	c.log.Debug("Interaction reset", "id", c.windowID, "mode", c.mode)
	c.finish()
	return true
}

func (c *Controller) begin(id string) (wm.Window, error) {
	if c.mode != ModeNone {
		return wm.Window{}, fmt.Errorf("%s %s: %w", c.mode, c.windowID, ErrInteractionActive)
	}

	w, ok := c.target.Get(id)
	if !ok {
		return wm.Window{}, fmt.Errorf("interact %s: %w", id, wm.ErrUnknownWindow)
	}
	if w.Lifecycle == wm.Maximized {
		return wm.Window{}, fmt.Errorf("interact %s: %w", id, ErrMaximized)
	}

	return w, nil
}

// movable reports whether live updates may touch the window. A window that
// was maximized or minimized mid-interaction keeps its geometry.
func movable(w wm.Window) bool {
	return w.Lifecycle != wm.Maximized && w.Lifecycle != wm.Minimized
}

// finish clears the slot and reports the change, if any, as one event.
func (c *Controller) finish() {
	id, mode, start := c.windowID, c.mode, c.start
	c.clear()

	w, ok := c.target.Get(id)
	if !ok || w.Geometry == start {
		return
	}

	kind := wm.GeometryMove
	if mode == ModeResizing {
		kind = wm.GeometryResize
	}
	bus.Publish(c.bus, wm.GeometryChanged{WindowID: id, Kind: kind})
}

// lost handles a window that disappeared mid-interaction.
func (c *Controller) lost() error {
	id := c.windowID
	c.clear()
	return fmt.Errorf("interact %s: %w", id, wm.ErrUnknownWindow)
}

func (c *Controller) clear() {
	c.mode = ModeNone
	c.windowID = ""
	c.edge = EdgeBottomRight
	c.origin = viewport.Point{}
	c.start = viewport.Rect{}
}
