package order

import "fmt"

// Column is the column a result view is sorted by.
type Column string

// Sortable columns.
const (
	None    Column = "none"
	Element Column = "element"
	Score   Column = "score"
)

// Direction is the sort direction.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseColumn converts a string into a sortable Column.
func ParseColumn(s string) (Column, error) {
	switch Column(s) {
	case None, Element, Score:
		return Column(s), nil
	default:
		return "", fmt.Errorf("unsupported sort column %q", s)
	}
}

// State is the current single-column sort.
type State struct {
	column    Column
	direction Direction
}

// Unsorted returns the state with no active sort.
func Unsorted() State {
	return State{column: None, direction: Asc}
}

// New creates a sort state.
func New(column Column, direction Direction) State {
	return State{column: column, direction: direction}
}

// Column returns the sorted column.
func (s State) Column() Column { return s.column }

// Direction returns the sort direction.
func (s State) Direction() Direction { return s.direction }

// Active reports whether any sort is applied.
func (s State) Active() bool { return s.column != None && s.column != "" }

// Click applies a header click on column:
// a different column starts ascending, the same column goes asc -> desc -> none.
func (s State) Click(column Column) State {
	if column == None {
		return Unsorted()
	}
	if s.column != column {
		return State{column: column, direction: Asc}
	}
	if s.direction == Asc {
		return State{column: column, direction: Desc}
	}
	return Unsorted()
}
