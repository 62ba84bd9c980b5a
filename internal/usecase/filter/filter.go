// Package filter computes the filtered-only overlay: while the mode is on,
// attribute columns show exactly the fields the filter expression references.
package filter

import (
	"slices"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/attribute"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/column"
	domfilter "github.com/kailas-cloud/vsetbrowse/internal/domain/filter"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// State is the structured filter expression and the filtered-only mode.
type State struct {
	expression   string
	fields       []string
	filteredOnly bool
}

// NewState creates a filter state.
func NewState(expression string, filteredOnly bool) State {
	return State{
		expression:   expression,
		fields:       domfilter.ReferencedFields(expression),
		filteredOnly: filteredOnly,
	}
}

// WithExpression returns a copy with a new expression.
func (s State) WithExpression(expression string) State {
	return NewState(expression, s.filteredOnly)
}

// WithFilteredOnly returns a copy with the mode switched.
func (s State) WithFilteredOnly(on bool) State {
	s.filteredOnly = on
	return s
}

// Expression returns the filter expression.
func (s State) Expression() string { return s.expression }

// Fields returns the referenced fields in order of first appearance.
func (s State) Fields() []string { return s.fields }

// FilteredOnly reports whether the mode is switched on.
func (s State) FilteredOnly() bool { return s.filteredOnly }

// OverrideActive reports whether the overlay currently overrides column visibility.
func (s State) OverrideActive() bool {
	return s.filteredOnly && domfilter.HasExpression(s.expression) && len(s.fields) > 0
}

// Overlay returns the effective columns. With the override active an
// attribute column is visible iff the expression references it; otherwise
// the stored visibility is returned unchanged. cols is never modified.
func (s State) Overlay(cols []column.Config) []column.Config {
	out := slices.Clone(cols)
	if !s.OverrideActive() {
		return out
	}
	for i, c := range out {
		if c.IsSystem() {
			continue
		}
		out[i] = c.WithVisible(slices.Contains(s.fields, c.Name()))
	}
	return out
}

// DisplayValues returns, for every row, the display string of each
// referenced field: the parsed value, or "" when absent. It returns nil
// when the override is not active.
func (s State) DisplayValues(rows []result.Row, lookup func(element string) (attribute.Attributes, bool)) []map[string]string {
	if !s.OverrideActive() {
		return nil
	}
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		attrs, ok := lookup(r.Element())
		values := make(map[string]string, len(s.fields))
		for _, f := range s.fields {
			values[f] = ""
			if !ok {
				continue
			}
			if v, found := attrs.Get(f); found {
				values[f] = v.Display()
			}
		}
		out[i] = values
	}
	return out
}
