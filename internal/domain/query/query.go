package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum allowed text query length.
	MaxTextLength   = 4096
	MaxFilterLength = 4096
	MaxCount        = domain.MaxCount
)

// Limits bounds the result count of a request.
type Limits struct {
	DefaultCount int
	MaxCount     int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{DefaultCount: domain.DefaultCount, MaxCount: MaxCount}
}

// Request is a validated similarity query against one vector set.
type Request struct {
	key     string
	element string
	text    string
	count   int
	ef      int
	epsilon float64
	filter  string
}

// New validates and normalizes query parameters under DefaultLimits.
// Exactly one of element and text must be set.
// Defaults: count=10, ef=100. Count is clamped to MaxCount.
func New(key, element, text string, count, ef int, epsilon float64, filter string) (Request, error) {
	return DefaultLimits().New(key, element, text, count, ef, epsilon, filter)
}

// New is like the package-level New with l's count default and cap.
// Non-positive limit fields fall back to DefaultLimits.
func (l Limits) New(key, element, text string, count, ef int, epsilon float64, filter string) (Request, error) {
	l = l.normalize()
	if err := command.ValidateKeyName(key); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	text = strings.TrimSpace(text)
	if (element == "") == (text == "") {
		return Request{}, fmt.Errorf("%w: exactly one of element or text is required", domain.ErrValidation)
	}
	if len(text) > MaxTextLength {
		return Request{}, fmt.Errorf("%w: text too long (max %d chars)", domain.ErrValidation, MaxTextLength)
	}
	if len(filter) > MaxFilterLength {
		return Request{}, fmt.Errorf("%w: filter too long (max %d chars)", domain.ErrValidation, MaxFilterLength)
	}
	if count <= 0 {
		count = l.DefaultCount
	}
	if count > l.MaxCount {
		count = l.MaxCount
	}
	if ef <= 0 {
		ef = domain.DefaultSearchEF
	}
	if epsilon < 0 || epsilon > 2 {
		return Request{}, fmt.Errorf("%w: epsilon must be between 0 and 2", domain.ErrValidation)
	}

	return Request{
		key:     key,
		element: element,
		text:    text,
		count:   count,
		ef:      ef,
		epsilon: epsilon,
		filter:  strings.TrimSpace(filter),
	}, nil
}

func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxCount <= 0 {
		l.MaxCount = def.MaxCount
	}
	if l.DefaultCount <= 0 {
		l.DefaultCount = def.DefaultCount
	}
	if l.DefaultCount > l.MaxCount {
		l.DefaultCount = l.MaxCount
	}
	return l
}

// Key returns the vector set key.
func (r *Request) Key() string { return r.key }

// Element returns the reference element (empty for text queries).
func (r *Request) Element() string { return r.element }

// Text returns the free text to embed (empty for element queries).
func (r *Request) Text() string { return r.text }

// ByElement reports whether the query starts from an existing element.
func (r *Request) ByElement() bool { return r.element != "" }

// Count returns the maximum number of results.
func (r *Request) Count() int { return r.count }

// EF returns the HNSW exploration factor.
func (r *Request) EF() int { return r.ef }

// Epsilon returns the maximum distance, 0 when unset.
func (r *Request) Epsilon() float64 { return r.epsilon }

// Filter returns the attribute filter expression.
func (r *Request) Filter() string { return r.filter }
