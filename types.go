package vsetbrowse

import "context"

// Result is one scored element of a similarity result list.
type Result struct {
	Element string
	Score   float64
}

// Query is a similarity query against one vector set key.
// Exactly one of Element and Text must be set. Zero Count and EF use the
// defaults 10 and 100.
type Query struct {
	Key     string
	Element string
	Text    string
	Count   int
	EF      int
	Epsilon float64
	Filter  string
}

// SortColumn is a sortable column.
type SortColumn string

// Sortable columns.
const (
	SortNone    SortColumn = "none"
	SortElement SortColumn = "element"
	SortScore   SortColumn = "score"
)

// Column is one table column as currently displayed.
type Column struct {
	Name    string
	Visible bool
	System  bool
}

// Row is one displayed result. Values maps every visible attribute column
// to its display string, "" when the element has no such field.
type Row struct {
	Element  string
	Score    float64
	Selected bool
	Values   map[string]string
}

// View is a consistent snapshot of the browser for rendering.
type View struct {
	Dataset          string
	Total            int
	Columns          []Column
	Rows             []Row
	Sort             SortColumn
	Descending       bool
	FilterText       string
	FilterExpression string
	FilterFields     []string
	FilteredOnly     bool
	OverrideActive   bool
	ShowAttributes   bool
	SelectionActive  bool
	Selected         []string
	Error            string
}

// ParseFailure reports an element whose attribute payload could not be parsed.
type ParseFailure struct {
	Element string
	Err     error
}

// LoadResult summarizes a LoadAttributes call.
type LoadResult struct {
	Requested     int
	Stored        int
	Discarded     bool
	ParseFailures []ParseFailure
}

// KeyInfo is the metadata of one vector set key.
type KeyInfo struct {
	Key            string
	Exists         bool
	QuantType      string
	Dimensions     int64
	Size           int64
	MaxLevel       int64
	VSetUID        int64
	HNSWMaxNodeUID int64
}

// Preferences persists column visibility per field name.
type Preferences interface {
	Visible(ctx context.Context, field string, def bool) bool
	SetVisible(ctx context.Context, field string, visible bool) error
}

// Editor returns the new attribute JSON of element, or nil to cancel.
// An empty string clears the attributes.
type Editor func(ctx context.Context, element string) (*string, error)
