package desktop

import (
	"errors"
	"fmt"

	"github.com/ItsNotGoodName/x-deskwm/internal/interact"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
)

type PointerKind string

const (
	PointerDown PointerKind = "down"
	PointerMove PointerKind = "move"
	PointerUp   PointerKind = "up"
	// PointerLost means the stream ended without an up, e.g. the pointer left
	// the page or the tab lost focus.
	PointerLost PointerKind = "lost"
)

// Handle is the part of a window a pointer-down landed on.
type Handle string

const (
	HandleBody        Handle = "body"
	HandleTitle       Handle = "title"
	HandleResize      Handle = "resize"
	HandleResizeRight Handle = "resize-right"
	HandleResizeDown  Handle = "resize-bottom"
)

var ErrUnknownPointer = errors.New("unknown pointer event")

// Pointer is one normalized pointer event. WindowID and Handle are only read
// on down.
type Pointer struct {
	Kind     PointerKind `json:"kind" enum:"down,move,up,lost"`
	WindowID string      `json:"windowId,omitempty"`
	Handle   Handle      `json:"handle,omitempty" enum:"body,title,resize,resize-right,resize-bottom"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
}

// Pointer feeds one event to the controller. A down focuses the window before
// starting the interaction, unless another interaction is still running.
// Moves and ups with nothing active are ignored.
func (tx Tx) Pointer(p Pointer) error {
	at := viewport.Point{X: p.X, Y: p.Y}
	ctl := tx.Controller

	switch p.Kind {
	case PointerDown:
		if ctl.Mode() != interact.ModeNone {
			return fmt.Errorf("pointer down on %s during %s of %s: %w", p.WindowID, ctl.Mode(), ctl.WindowID(), interact.ErrInteractionActive)
		}
		if err := tx.Registry.Focus(p.WindowID); err != nil {
			return err
		}
		return ignoreGated(tx.begin(p, at))
	case PointerMove:
		switch ctl.Mode() {
		case interact.ModeDragging:
			return ctl.UpdateDrag(at)
		case interact.ModeResizing:
			return ctl.UpdateResize(at)
		}
		return nil
	case PointerUp:
		switch ctl.Mode() {
		case interact.ModeDragging:
			return ctl.EndDrag()
		case interact.ModeResizing:
			return ctl.EndResize()
		}
		return nil
	case PointerLost:
		ctl.Reset()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPointer, p.Kind)
	}
}

func (tx Tx) begin(p Pointer, at viewport.Point) error {
	ctl := tx.Controller

	switch p.Handle {
	case HandleTitle:
		return ctl.BeginDrag(p.WindowID, at)
	case HandleResize:
		return ctl.BeginResizeEdge(p.WindowID, interact.EdgeBottomRight, at)
	case HandleResizeRight:
		return ctl.BeginResizeEdge(p.WindowID, interact.EdgeRight, at)
	case HandleResizeDown:
		return ctl.BeginResizeEdge(p.WindowID, interact.EdgeBottom, at)
	default:
		return nil
	}
}

// ignoreGated drops refusals that a click on a maximized or fixed-size window
// produces; the click still focused the window.
func ignoreGated(err error) error {
	if errors.Is(err, interact.ErrMaximized) || errors.Is(err, interact.ErrCapabilityDenied) {
		return nil
	}
	return err
}
