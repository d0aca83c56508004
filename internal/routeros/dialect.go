// Package routeros reads the small RouterOS v7 routing-filter dialect that the
// exporter writes, plus hand-written variations of it.
package routeros

import "strings"

const (
	// CommandPath marks a line as a routing filter statement.
	CommandPath = "/routing/filter/rule"

	DefaultChain      = "bgp-in"
	DefaultDropTarget = "bgp-drop"

	DefaultPrefix      = "0.0.0.0/0"
	DefaultDescription = "Parsed from input"
	DefaultComment     = "Imported from RouterOS commands"
)

// Quote wraps s in double quotes, escaping backslashes and quotes the way
// RouterOS does in exported scripts.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// unquoteBody reverses Quote for the text between the quotes.
func unquoteBody(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
