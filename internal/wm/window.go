package wm

import (
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
)

// Lifecycle is the state of a window.
type Lifecycle int

const (
	Normal Lifecycle = iota
	Minimized
	Maximized
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Normal:
		return "normal"
	case Minimized:
		return "minimized"
	case Maximized:
		return "maximized"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Capabilities are fixed at creation.
type Capabilities struct {
	Closable    bool `json:"closable" yaml:"closable"`
	Minimizable bool `json:"minimizable" yaml:"minimizable"`
	Resizable   bool `json:"resizable" yaml:"resizable"`
}

func DefaultCapabilities() Capabilities {
	return Capabilities{
		Closable:    true,
		Minimizable: true,
		Resizable:   true,
	}
}

// Window is a floating panel. The registry hands out copies only.
type Window struct {
	ID            string
	Title         string
	Geometry      viewport.Rect
	MinWidth      float64
	MinHeight     float64
	Capabilities  Capabilities
	Lifecycle     Lifecycle
	StackingValue int

	// RestoreSnapshot is the geometry captured right before the last
	// maximize. HasSnapshot is false until the window is first maximized.
	RestoreSnapshot viewport.Rect
	HasSnapshot     bool

	seq int
}

// Visible reports whether the window takes part in focus.
func (w Window) Visible() bool {
	return w.Lifecycle != Minimized && w.Lifecycle != Closed
}

// Spec is the input to Registry.CreateWindow.
type Spec struct {
	ID           string
	Title        string
	Capabilities Capabilities
	Geometry     viewport.Rect
	MinWidth     float64
	MinHeight    float64
	// StackingValue is optional; nil means "put it in front".
	StackingValue *int
}
