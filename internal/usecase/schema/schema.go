// Package schema derives the column set of the result table from the
// attributes observed so far. Columns only ever grow.
package schema

import (
	"fmt"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/attribute"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/column"
)

// VisibilityLookup returns the persisted visibility of a field, or def.
type VisibilityLookup func(field string, def bool) bool

// DefaultVisible is the visibility of a newly seen field without a preference.
const DefaultVisible = true

// FieldNames returns the ordered union of field names over a corpus:
// records in order, fields in payload order, first appearance wins.
func FieldNames(corpus []attribute.Attributes) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, a := range corpus {
		for _, f := range a.Fields() {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			names = append(names, f)
		}
	}
	return names
}

// Unseen returns the names in fields that have no column yet.
func Unseen(cols []column.Config, fields []string) []string {
	var out []string
	for _, f := range fields {
		if column.Index(cols, column.Attribute, f) < 0 {
			out = append(out, f)
		}
	}
	return out
}

// Derive returns cols extended with a column for every unseen field.
// System columns stay first and untouched; existing columns are never removed.
func Derive(cols []column.Config, fields []string, lookup VisibilityLookup) []column.Config {
	out := withSystemColumns(cols)
	for _, f := range fields {
		if column.Index(out, column.Attribute, f) >= 0 {
			continue
		}
		visible := DefaultVisible
		if lookup != nil {
			visible = lookup(f, DefaultVisible)
		}
		out = append(out, column.New(f, visible, column.Attribute))
	}
	return out
}

// Toggle flips the visibility of an attribute column.
// It returns the new column list and the column's new visibility.
// An attribute column wins over a system column of the same name.
func Toggle(cols []column.Config, name string) ([]column.Config, bool, error) {
	i := column.Index(cols, column.Attribute, name)
	if i < 0 {
		if j := column.Index(cols, column.System, name); j >= 0 {
			return cols, cols[j].Visible(), fmt.Errorf("column %q is a system column: %w", name, domain.ErrValidation)
		}
		return cols, false, fmt.Errorf("column %q: %w", name, domain.ErrNotFound)
	}
	out := append([]column.Config(nil), cols...)
	out[i] = out[i].WithVisible(!out[i].Visible())
	return out, out[i].Visible(), nil
}

// Reset returns only the system columns.
func Reset() []column.Config {
	return column.SystemColumns()
}

func withSystemColumns(cols []column.Config) []column.Config {
	out := column.SystemColumns()
	for _, c := range cols {
		if c.IsSystem() {
			continue
		}
		out = append(out, c)
	}
	return out
}
