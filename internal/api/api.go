// Package api exposes a desktop over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ItsNotGoodName/x-deskwm/internal/build"
	"github.com/ItsNotGoodName/x-deskwm/internal/core"
	"github.com/ItsNotGoodName/x-deskwm/internal/desktop"
	"github.com/ItsNotGoodName/x-deskwm/internal/interact"
	"github.com/ItsNotGoodName/x-deskwm/internal/launcher"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

// Saver writes the session on demand.
type Saver interface {
	Save(ctx context.Context) error
}

type Window struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Geometry        viewport.Rect   `json:"geometry"`
	MinWidth        float64         `json:"minWidth"`
	MinHeight       float64         `json:"minHeight"`
	Capabilities    wm.Capabilities `json:"capabilities"`
	Lifecycle       string          `json:"lifecycle"`
	StackingValue   int             `json:"stackingValue"`
	Focused         bool            `json:"focused"`
	RestoreSnapshot *viewport.Rect  `json:"restoreSnapshot,omitempty"`
}

func newWindow(w wm.Window, focusedID string) Window {
	v := Window{
		ID:            w.ID,
		Title:         w.Title,
		Geometry:      w.Geometry,
		MinWidth:      w.MinWidth,
		MinHeight:     w.MinHeight,
		Capabilities:  w.Capabilities,
		Lifecycle:     w.Lifecycle.String(),
		StackingValue: w.StackingValue,
		Focused:       w.ID == focusedID,
	}
	if w.HasSnapshot {
		snapshot := w.RestoreSnapshot
		v.RestoreSnapshot = &snapshot
	}
	return v
}

type Interaction struct {
	Mode     string `json:"mode"`
	WindowID string `json:"windowId,omitempty"`
}

type Handler struct {
	desktop   *desktop.Desktop
	saver     Saver
	minWidth  float64
	minHeight float64
}

// NewHandler serves d. saver may be nil, which disables the save endpoint.
// minWidth and minHeight apply to created windows that do not ask for a
// minimum size.
func NewHandler(d *desktop.Desktop, saver Saver, minWidth, minHeight float64) Handler {
	return Handler{
		desktop:   d,
		saver:     saver,
		minWidth:  minWidth,
		minHeight: minHeight,
	}
}

type WindowsOutput struct {
	Body []Window
}

type WindowInput struct {
	ID string `path:"id"`
}

type WindowOutput struct {
	Body Window
}

type CreateInput struct {
	Body struct {
		ID            string           `json:"id,omitempty" doc:"Window id, generated when empty"`
		Title         string           `json:"title"`
		X             float64          `json:"x,omitempty"`
		Y             float64          `json:"y,omitempty"`
		Width         float64          `json:"width,omitempty"`
		Height        float64          `json:"height,omitempty"`
		MinWidth      float64          `json:"minWidth,omitempty"`
		MinHeight     float64          `json:"minHeight,omitempty"`
		StackingValue *int             `json:"stackingValue,omitempty"`
		Capabilities  *wm.Capabilities `json:"capabilities,omitempty"`
	}
}

type LauncherOutput struct {
	Body []launcher.Entry
}

type PointerInput struct {
	Body desktop.Pointer
}

type InteractionOutput struct {
	Body Interaction
}

type ViewportInput struct {
	Body struct {
		Width          float64 `json:"width" minimum:"1"`
		Height         float64 `json:"height" minimum:"1"`
		ReservedTop    float64 `json:"reservedTop,omitempty" minimum:"0"`
		ReservedBottom float64 `json:"reservedBottom,omitempty" minimum:"0"`
		TitleHeight    float64 `json:"titleHeight,omitempty" minimum:"0"`
	}
}

type ViewportOutput struct {
	Body struct {
		Width          float64       `json:"width"`
		Height         float64       `json:"height"`
		ReservedTop    float64       `json:"reservedTop"`
		ReservedBottom float64       `json:"reservedBottom"`
		TitleHeight    float64       `json:"titleHeight"`
		Usable         viewport.Rect `json:"usable"`
	}
}

type VersionOutput struct {
	Body build.Build
}

func (h Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-windows",
		Method:      http.MethodGet,
		Path:        "/api/windows",
		Summary:     "List windows in creation order",
	}, h.ListWindows)

	huma.Register(api, huma.Operation{
		OperationID: "get-window",
		Method:      http.MethodGet,
		Path:        "/api/windows/{id}",
		Summary:     "Get a window",
	}, h.GetWindow)

	huma.Register(api, huma.Operation{
		OperationID:   "create-window",
		Method:        http.MethodPost,
		Path:          "/api/windows",
		Summary:       "Create a window",
		DefaultStatus: http.StatusCreated,
	}, h.CreateWindow)

	for _, action := range []struct {
		name string
		fn   func(reg *wm.Registry, id string) error
	}{
		{"focus", (*wm.Registry).Focus},
		{"minimize", (*wm.Registry).Minimize},
		{"restore", (*wm.Registry).Restore},
		{"maximize", (*wm.Registry).ToggleMaximize},
	} {
		huma.Register(api, huma.Operation{
			OperationID: action.name + "-window",
			Method:      http.MethodPost,
			Path:        "/api/windows/{id}/" + action.name,
			Summary:     "Apply " + action.name + " to a window",
		}, h.windowAction(action.fn))
	}

	huma.Register(api, huma.Operation{
		OperationID:   "close-window",
		Method:        http.MethodDelete,
		Path:          "/api/windows/{id}",
		Summary:       "Close a window",
		DefaultStatus: http.StatusNoContent,
	}, h.CloseWindow)

	huma.Register(api, huma.Operation{
		OperationID: "tile-windows",
		Method:      http.MethodPost,
		Path:        "/api/tile",
		Summary:     "Arrange normal windows in a grid",
	}, h.Tile)

	huma.Register(api, huma.Operation{
		OperationID: "get-viewport",
		Method:      http.MethodGet,
		Path:        "/api/viewport",
		Summary:     "Get the viewport",
	}, h.GetViewport)

	huma.Register(api, huma.Operation{
		OperationID: "set-viewport",
		Method:      http.MethodPut,
		Path:        "/api/viewport",
		Summary:     "Report a resized surface and re-fit every window",
	}, h.SetViewport)

	huma.Register(api, huma.Operation{
		OperationID: "list-launcher",
		Method:      http.MethodGet,
		Path:        "/api/launcher",
		Summary:     "List launcher entries",
	}, h.ListLauncher)

	huma.Register(api, huma.Operation{
		OperationID: "post-pointer",
		Method:      http.MethodPost,
		Path:        "/api/pointer",
		Summary:     "Feed a pointer event",
	}, h.Pointer)

	huma.Register(api, huma.Operation{
		OperationID:   "save-session",
		Method:        http.MethodPost,
		Path:          "/api/session",
		Summary:       "Save the session now",
		DefaultStatus: http.StatusNoContent,
	}, h.SaveSession)

	huma.Register(api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Build information",
	}, func(ctx context.Context, input *struct{}) (*VersionOutput, error) {
		return &VersionOutput{Body: build.Current}, nil
	})
}

func (h Handler) ListWindows(ctx context.Context, input *struct{}) (*WindowsOutput, error) {
	var res []Window
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		res = list(tx)
		return nil
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return &WindowsOutput{Body: res}, nil
}

func (h Handler) Tile(ctx context.Context, input *struct{}) (*WindowsOutput, error) {
	var res []Window
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		tx.Registry.Tile()
		res = list(tx)
		return nil
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return &WindowsOutput{Body: res}, nil
}

func (h Handler) GetViewport(ctx context.Context, input *struct{}) (*ViewportOutput, error) {
	var v viewport.Viewport
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		v = tx.Registry.Viewport()
		return nil
	})
	if err != nil {
		return nil, toHuma(err)
	}

	res := &ViewportOutput{}
	res.Body.Width = v.Width
	res.Body.Height = v.Height
	res.Body.ReservedTop = v.ReservedTop
	res.Body.ReservedBottom = v.ReservedBottom
	res.Body.TitleHeight = v.TitleHeight
	res.Body.Usable = v.Usable()
	return res, nil
}

func (h Handler) SetViewport(ctx context.Context, input *ViewportInput) (*WindowsOutput, error) {
	v := viewport.Viewport{
		Width:          input.Body.Width,
		Height:         input.Body.Height,
		ReservedTop:    input.Body.ReservedTop,
		ReservedBottom: input.Body.ReservedBottom,
		TitleHeight:    input.Body.TitleHeight,
	}

	if err := h.desktop.SetViewport(ctx, v); err != nil {
		return nil, toHuma(err)
	}
	return h.ListWindows(ctx, nil)
}

func (h Handler) GetWindow(ctx context.Context, input *WindowInput) (*WindowOutput, error) {
	var res Window
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		return view(tx, input.ID, &res)
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return &WindowOutput{Body: res}, nil
}

func (h Handler) CreateWindow(ctx context.Context, input *CreateInput) (*WindowOutput, error) {
	body := input.Body

	spec := wm.Spec{
		ID:            body.ID,
		Title:         body.Title,
		Capabilities:  core.Optional(body.Capabilities, wm.DefaultCapabilities()),
		Geometry:      viewport.Rect{X: body.X, Y: body.Y, Width: body.Width, Height: body.Height},
		MinWidth:      body.MinWidth,
		MinHeight:     body.MinHeight,
		StackingValue: body.StackingValue,
	}
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.MinWidth == 0 && spec.MinHeight == 0 {
		spec.MinWidth, spec.MinHeight = h.minWidth, h.minHeight
	}

	var res Window
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		if _, err := tx.Registry.CreateWindow(spec); err != nil {
			return err
		}
		return view(tx, spec.ID, &res)
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return &WindowOutput{Body: res}, nil
}

func (h Handler) windowAction(fn func(reg *wm.Registry, id string) error) func(ctx context.Context, input *WindowInput) (*WindowOutput, error) {
	return func(ctx context.Context, input *WindowInput) (*WindowOutput, error) {
		var res Window
		err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
			if err := fn(tx.Registry, input.ID); err != nil {
				return err
			}
			return view(tx, input.ID, &res)
		})
		if err != nil {
			return nil, toHuma(err)
		}
		return &WindowOutput{Body: res}, nil
	}
}

func (h Handler) CloseWindow(ctx context.Context, input *WindowInput) (*struct{}, error) {
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		return tx.Registry.Close(input.ID)
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return nil, nil
}

func (h Handler) ListLauncher(ctx context.Context, input *struct{}) (*LauncherOutput, error) {
	entries, err := h.desktop.Launcher(ctx)
	if err != nil {
		return nil, toHuma(err)
	}
	return &LauncherOutput{Body: entries}, nil
}

func (h Handler) Pointer(ctx context.Context, input *PointerInput) (*InteractionOutput, error) {
	var res Interaction
	err := h.desktop.Do(ctx, func(tx desktop.Tx) error {
		err := tx.Pointer(input.Body)
		res = Interaction{
			Mode:     tx.Controller.Mode().String(),
			WindowID: tx.Controller.WindowID(),
		}
		return err
	})
	if err != nil {
		return nil, toHuma(err)
	}
	return &InteractionOutput{Body: res}, nil
}

func (h Handler) SaveSession(ctx context.Context, input *struct{}) (*struct{}, error) {
	if h.saver == nil {
		return nil, huma.Error501NotImplemented("session saving is disabled")
	}
	if err := h.saver.Save(ctx); err != nil {
		return nil, toHuma(err)
	}
	return nil, nil
}

func list(tx desktop.Tx) []Window {
	focused, _ := tx.Registry.Focused()
	windows := tx.Registry.Windows()
	res := make([]Window, 0, len(windows))
	for _, w := range windows {
		res = append(res, newWindow(w, focused.ID))
	}
	return res
}

func view(tx desktop.Tx, id string, res *Window) error {
	w, ok := tx.Registry.Get(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, wm.ErrUnknownWindow)
	}
	focused, _ := tx.Registry.Focused()
	*res = newWindow(w, focused.ID)
	return nil
}

func toHuma(err error) error {
	switch {
	case errors.Is(err, wm.ErrUnknownWindow):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, wm.ErrDuplicateID):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, wm.ErrEmptyID), errors.Is(err, desktop.ErrUnknownPointer):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, interact.ErrInteractionActive),
		errors.Is(err, interact.ErrNoInteraction),
		errors.Is(err, interact.ErrMaximized),
		errors.Is(err, interact.ErrCapabilityDenied):
		return huma.Error409Conflict(err.Error())
	default:
		return err
	}
}
