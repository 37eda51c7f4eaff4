package wm

type GeometryKind string

const (
	GeometryMove   GeometryKind = "move"
	GeometryResize GeometryKind = "resize"
)

// GeometryChanged is published once per finished drag or resize that changed
// the window, and for every window moved by Tile or SetViewport.
type GeometryChanged struct {
	WindowID string
	Kind     GeometryKind
}

type LifecycleChanged struct {
	WindowID string
	From     Lifecycle
	To       Lifecycle
}

// FocusChanged carries empty ids for "no window".
type FocusChanged struct {
	Previous string
	Current  string
}

type WindowCreated struct {
	WindowID string
}
