package display

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Alert frames a user-facing warning, wrapped to the display width. Used for
// the storage-quota message.
func Alert(title, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("!! %s !!\n", strings.ToUpper(title)))
	b.WriteString(Wrap(body))
	return b.String()
}

// Capitalize returns s with its first character uppercased.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
