// Package view turns the raw result list into the ordered, filtered rows
// a table renders.
package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// Pipeline applies the free-text filter and the column sort.
type Pipeline struct {
	locale language.Tag
}

// New creates a pipeline comparing element names under locale.
func New(locale language.Tag) *Pipeline {
	return &Pipeline{locale: locale}
}

// Apply returns a new slice: rows whose element contains filterText
// (trimmed, case-insensitive, NFC-normalized), sorted per state with a
// stable sort.
// An unsorted state keeps the original relative order.
func (p *Pipeline) Apply(rows []result.Row, filterText string, state order.State) []result.Row {
	out := filterRows(rows, filterText)

	switch state.Column() {
	case order.Element:
		// collators keep internal buffers, one per call
		coll := collate.New(p.locale)
		slices.SortStableFunc(out, func(a, b result.Row) int {
			return direct(state.Direction(), coll.CompareString(a.Element(), b.Element()))
		})
	case order.Score:
		slices.SortStableFunc(out, func(a, b result.Row) int {
			return direct(state.Direction(), cmp.Compare(a.Score(), b.Score()))
		})
	}
	return out
}

func filterRows(rows []result.Row, filterText string) []result.Row {
	needle := fold(strings.TrimSpace(filterText))
	if needle == "" {
		return slices.Clone(rows)
	}
	out := make([]result.Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(fold(r.Element()), needle) {
			out = append(out, r)
		}
	}
	return out
}

// fold makes composed and decomposed accents compare equal.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func direct(d order.Direction, c int) int {
	if d == order.Desc {
		return -c
	}
	return c
}
