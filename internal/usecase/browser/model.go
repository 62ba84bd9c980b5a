package browser

import (
	"github.com/kailas-cloud/vsetbrowse/internal/domain/column"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
)

// Model is the render-ready state of a session.
type Model struct {
	Dataset          string
	Generation       uint64
	Columns          []column.Config
	Rows             []Row
	Total            int
	Sort             order.State
	FilterText       string
	FilterExpression string
	FilterFields     []string
	FilteredOnly     bool
	OverrideActive   bool
	ShowAttributes   bool
	SelectionActive  bool
	Selected         []string
	LastError        string
}

// Row is one displayed result.
// Values holds the display string of every visible attribute column,
// "" when the element has no such field.
type Row struct {
	Element  string
	Score    float64
	Selected bool
	Values   map[string]string
}
