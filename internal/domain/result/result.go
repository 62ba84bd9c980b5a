package result

// Row is a single scored element produced by a similarity query.
type Row struct {
	element string
	score   float64
}

// New creates a result row.
func New(element string, score float64) Row {
	return Row{element: element, score: score}
}

// Element returns the element identifier.
func (r Row) Element() string { return r.element }

// Score returns the similarity score.
func (r Row) Score() float64 { return r.score }

// Elements returns the element identifiers of rows in order.
func Elements(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.element
	}
	return out
}
