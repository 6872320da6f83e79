// Package search turns the escaped search fragment sent by clients into a
// LIKE pattern.
//
// Clients escape their input for the filter-expression layer: a single quote
// is doubled and a double quote is backslash-escaped, while backslash, percent
// and underscore are escaped for LIKE itself. Pattern undoes the first layer
// and keeps the second, so the result is safe to bind with ESCAPE '\'.
package search

import (
	"errors"
	"strings"
)

var ErrDanglingEscape = errors.New("search: fragment ends with an unpaired backslash")

// Pattern returns a LIKE pattern that matches fragment anywhere in a column.
func Pattern(fragment string) (string, error) {
	var b strings.Builder
	b.Grow(len(fragment) + 2)
	b.WriteByte('%')

	for i := 0; i < len(fragment); i++ {
		c := fragment[i]
		switch c {
		case '\\':
			if i+1 >= len(fragment) {
				return "", ErrDanglingEscape
			}
			next := fragment[i+1]
			i++
			if next == '"' {
				b.WriteByte('"')
				continue
			}
			b.WriteByte('\\')
			b.WriteByte(next)
		case '\'':
			b.WriteByte('\'')
			if i+1 < len(fragment) && fragment[i+1] == '\'' {
				i++
			}
		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('%')
	return b.String(), nil
}
