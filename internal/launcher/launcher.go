// Package launcher derives taskbar entries from the window registry.
package launcher

import "github.com/ItsNotGoodName/x-deskwm/internal/wm"

type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
	Minimized bool   `json:"minimized"`
}

// Source is the part of the registry the launcher reads.
type Source interface {
	Windows() []wm.Window
	Focused() (wm.Window, bool)
	Revision() uint64
}

// Project returns one entry per open window in creation order.
func Project(src Source) []Entry {
	focused, ok := src.Focused()

	windows := src.Windows()
	entries := make([]Entry, 0, len(windows))
	for _, w := range windows {
		entries = append(entries, Entry{
			ID:        w.ID,
			Title:     w.Title,
			Active:    ok && w.ID == focused.ID,
			Minimized: w.Lifecycle == wm.Minimized,
		})
	}

	return entries
}

// Sync caches Project until the registry revision moves.
type Sync struct {
	src      Source
	revision uint64
	valid    bool
	entries  []Entry
}

func NewSync(src Source) *Sync {
	return &Sync{src: src}
}

// Entries returns a copy of the current entries.
func (s *Sync) Entries() []Entry {
	if rev := s.src.Revision(); !s.valid || rev != s.revision {
		s.entries = Project(s.src)
		s.revision = rev
		s.valid = true
	}

	return append([]Entry(nil), s.entries...)
}

// Entry returns the entry for one window.
func (s *Sync) Entry(id string) (Entry, bool) {
	for _, e := range s.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
