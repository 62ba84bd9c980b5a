package attribute

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindArray and KindObject are opaque: only their JSON text is kept.
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one typed attribute value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null creates a null value.
func Null() Value { return Value{kind: KindNull} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Display renders the value as a table cell.
// Arrays and objects render as their compact JSON text, null as "null".
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray, KindObject:
		return v.str
	default:
		return "null"
	}
}

// Attributes is the parsed attribute object of one element.
// Field order follows the order of first appearance in the payload.
type Attributes struct {
	keys   []string
	values map[string]Value
}

// Fields returns field names in payload order.
func (a Attributes) Fields() []string { return a.keys }

// Get returns the value of a field.
func (a Attributes) Get(field string) (Value, bool) {
	v, ok := a.values[field]
	return v, ok
}

// Len returns the number of fields.
func (a Attributes) Len() int { return len(a.keys) }

// ParseError reports a payload that is not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse attributes: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return domain.ErrParse }

// Cause returns the underlying decoder error.
func (e *ParseError) Cause() error { return e.Err }

// Parse decodes a raw attribute payload. The payload must be a JSON object.
func Parse(raw string) (Attributes, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Attributes{}, &ParseError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Attributes{}, &ParseError{Err: fmt.Errorf("expected object, got %v", tok)}
	}

	attrs := Attributes{values: make(map[string]Value)}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return Attributes{}, &ParseError{Err: err}
		}
		name, ok := tok.(string)
		if !ok {
			return Attributes{}, &ParseError{Err: fmt.Errorf("expected field name, got %v", tok)}
		}
		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return Attributes{}, &ParseError{Err: fmt.Errorf("field %q: %w", name, err)}
		}
		val, err := classify(rawVal)
		if err != nil {
			return Attributes{}, &ParseError{Err: fmt.Errorf("field %q: %w", name, err)}
		}
		if _, seen := attrs.values[name]; !seen {
			attrs.keys = append(attrs.keys, name)
		}
		attrs.values[name] = val
	}

	if _, err := dec.Token(); err != nil {
		return Attributes{}, &ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Attributes{}, &ParseError{Err: fmt.Errorf("trailing data after object")}
	}
	return attrs, nil
}

func classify(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case 'n':
		return Null(), nil
	case '[', '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return Value{}, err
		}
		kind := KindArray
		if trimmed[0] == '{' {
			kind = KindObject
		}
		return Value{kind: kind, str: buf.String()}, nil
	default:
		f, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", trimmed)
		}
		return Number(f), nil
	}
}
