// Package selection tracks the multi-select state over result elements.
package selection

import "slices"

// Set is the selection mode flag plus the chosen element ids.
// The zero value is an inactive, empty selection.
type Set struct {
	active bool
	ids    map[string]struct{}
}

// New returns an inactive, empty selection.
func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Enter turns selection mode on.
func (s *Set) Enter() { s.active = true }

// Active reports whether selection mode is on.
func (s *Set) Active() bool { return s.active }

// Toggle flips membership of id and reports whether it is now selected.
func (s *Set) Toggle(id string) bool {
	s.init()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll replaces the selection with exactly the visible ids.
func (s *Set) SelectAll(visible []string) {
	s.ids = make(map[string]struct{}, len(visible))
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// DeselectAll clears the selection, leaving the mode unchanged.
func (s *Set) DeselectAll() {
	s.ids = make(map[string]struct{})
}

// Exit leaves selection mode and clears it.
func (s *Set) Exit() {
	s.active = false
	s.DeselectAll()
}

// Reset is Exit under a name matching the other per-dataset resets.
func (s *Set) Reset() { s.Exit() }

// Retain drops selected ids not present in ids.
func (s *Set) Retain(ids []string) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			keep[id] = struct{}{}
		}
	}
	s.ids = keep
}

// IsSelected reports whether id is selected.
func (s *Set) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Set) Len() int { return len(s.ids) }

// Selected returns the selected ids following order, then any remaining
// ids sorted lexically.
func (s *Set) Selected(order []string) []string {
	out := make([]string, 0, len(s.ids))
	seen := make(map[string]struct{}, len(s.ids))
	for _, id := range order {
		if _, ok := s.ids[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	var rest []string
	for id := range s.ids {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func (s *Set) init() {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
}
