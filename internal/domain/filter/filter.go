// Package filter inspects structured filter expressions such as
// `.year > 1950 and .genre == "drama"`.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldMarker precedes an attribute field reference in an expression.
const FieldMarker = '.'

// ReferencedFields returns the attribute fields an expression refers to,
// marker stripped, de-duplicated, in order of first appearance.
// Text inside string literals is not scanned.
func ReferencedFields(expr string) []string {
	var (
		fields []string
		seen   = make(map[string]struct{})
		quote  rune
		prev   rune
	)

	for i := 0; i < len(expr); {
		r, size := utf8.DecodeRuneInString(expr[i:])

		if quote != 0 {
			switch r {
			case '\\':
				// skip the escaped rune
				i += size
				if i < len(expr) {
					_, n := utf8.DecodeRuneInString(expr[i:])
					i += n
				}
			case quote:
				quote = 0
				i += size
			default:
				i += size
			}
			prev = r
			continue
		}

		switch {
		case r == '"' || r == '\'':
			quote = r
			i += size
		case r == FieldMarker && !isIdentRune(prev):
			name := identAt(expr[i+size:])
			if name != "" {
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					fields = append(fields, name)
				}
				i += size + len(name)
				r, _ = utf8.DecodeLastRuneInString(name)
			} else {
				i += size
			}
		default:
			i += size
		}
		prev = r
	}
	return fields
}

// HasExpression reports whether expr contains anything besides whitespace.
func HasExpression(expr string) bool {
	return strings.TrimSpace(expr) != ""
}

func identAt(s string) string {
	end := 0
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if end == 0 && !(unicode.IsLetter(r) || r == '_') {
			return ""
		}
		if !isIdentRune(r) {
			break
		}
		end += size
	}
	return s[:end]
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
