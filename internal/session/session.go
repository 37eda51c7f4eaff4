// Package session converts windows to flat records and back.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/ItsNotGoodName/x-deskwm/internal/wm"
	"github.com/google/uuid"
)

type Box struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func BoxOf(r viewport.Rect) Box {
	return Box{Left: r.X, Top: r.Y, Width: r.Width, Height: r.Height}
}

func (b Box) Rect() viewport.Rect {
	return viewport.Rect{X: b.Left, Y: b.Top, Width: b.Width, Height: b.Height}
}

// Record is the persisted form of one window. A nil RestoreSnapshot means the
// window was never maximized.
type Record struct {
	ID              string  `json:"id" yaml:"id"`
	Title           string  `json:"title" yaml:"title"`
	Left            float64 `json:"left" yaml:"left"`
	Top             float64 `json:"top" yaml:"top"`
	Width           float64 `json:"width" yaml:"width"`
	Height          float64 `json:"height" yaml:"height"`
	StackingValue   int     `json:"stackingValue" yaml:"stackingValue"`
	Minimized       bool    `json:"minimized" yaml:"minimized"`
	Maximized       bool    `json:"maximized" yaml:"maximized"`
	RestoreSnapshot *Box    `json:"restoreSnapshot,omitempty" yaml:"restoreSnapshot,omitempty"`

	// Only used when the window has to be created during a restore.
	MinWidth     float64          `json:"minWidth,omitempty" yaml:"minWidth,omitempty"`
	MinHeight    float64          `json:"minHeight,omitempty" yaml:"minHeight,omitempty"`
	Capabilities *wm.Capabilities `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

type Session struct {
	Windows []Record `json:"windows" yaml:"windows"`
}

// Registry is the part of wm.Registry a session needs.
type Registry interface {
	Windows() []wm.Window
	Get(id string) (wm.Window, bool)
	CreateWindow(spec wm.Spec) (wm.Window, error)
	ApplyState(id string, s wm.State) error
}

func Serialize(w wm.Window) Record {
	caps := w.Capabilities
	r := Record{
		ID:            w.ID,
		Title:         w.Title,
		Left:          w.Geometry.X,
		Top:           w.Geometry.Y,
		Width:         w.Geometry.Width,
		Height:        w.Geometry.Height,
		StackingValue: w.StackingValue,
		Minimized:     w.Lifecycle == wm.Minimized,
		Maximized:     w.Lifecycle == wm.Maximized,
		MinWidth:      w.MinWidth,
		MinHeight:     w.MinHeight,
		Capabilities:  &caps,
	}
	if w.HasSnapshot {
		box := BoxOf(w.RestoreSnapshot)
		r.RestoreSnapshot = &box
	}
	return r
}

// State converts the record to the registry's bulk-apply form.
func (r Record) State() wm.State {
	s := wm.State{
		Title:         r.Title,
		Geometry:      viewport.Rect{X: r.Left, Y: r.Top, Width: r.Width, Height: r.Height},
		StackingValue: r.StackingValue,
		Minimized:     r.Minimized,
		Maximized:     r.Maximized,
	}
	if r.RestoreSnapshot != nil {
		rect := r.RestoreSnapshot.Rect()
		s.RestoreSnapshot = &rect
	}
	return s
}

func (r Record) spec() wm.Spec {
	caps := wm.DefaultCapabilities()
	if r.Capabilities != nil {
		caps = *r.Capabilities
	}
	stacking := r.StackingValue
	return wm.Spec{
		ID:            r.ID,
		Title:         r.Title,
		Capabilities:  caps,
		Geometry:      viewport.Rect{X: r.Left, Y: r.Top, Width: r.Width, Height: r.Height},
		MinWidth:      r.MinWidth,
		MinHeight:     r.MinHeight,
		StackingValue: &stacking,
	}
}

// Snapshot serializes every window in creation order.
func Snapshot(reg Registry) Session {
	windows := reg.Windows()
	records := make([]Record, 0, len(windows))
	for _, w := range windows {
		records = append(records, Serialize(w))
	}
	return Session{Windows: records}
}

// Restore creates missing windows and applies every record. Records are
// independent; a failing record does not stop the others.
func Restore(reg Registry, s Session) error {
	var errs error
	for _, r := range s.Windows {
		if _, ok := reg.Get(r.ID); !ok {
			if _, err := reg.CreateWindow(r.spec()); err != nil {
				errs = errors.Join(errs, fmt.Errorf("restore %s: %w", r.ID, err))
				continue
			}
		}
		if err := reg.ApplyState(r.ID, r.State()); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	slog.Debug("Session restored", "package", "session", "windows", len(s.Windows), "error", errs)
	return errs
}

// Normalize gives id-less records a fresh id and drops repeated ids.
func Normalize(s Session) Session {
	seen := make(map[string]struct{}, len(s.Windows))
	records := make([]Record, 0, len(s.Windows))
	for _, r := range s.Windows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		records = append(records, r)
	}
	return Session{Windows: records}
}
