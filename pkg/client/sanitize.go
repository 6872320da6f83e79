package client

import "strings"

var searchEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
	`'`, `''`,
	`"`, `\"`,
)

// SanitizeSearchInput escapes user text before it is embedded in a search
// filter: backslash, percent and underscore for the pattern match, quotes
// for the filter expression. Surrounding whitespace is trimmed. Applying it
// twice escapes the escapes again.
func SanitizeSearchInput(input string) string {
	return strings.TrimSpace(searchEscaper.Replace(input))
}
