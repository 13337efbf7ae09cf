package bindgen

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LogName is the name of the root logger; per-binding loggers extend it.
const LogName = "BINDGEN"

// bindingLabel is the logger name used while a particular binding is being
// generated.
func bindingLabel(name string) string {
	return LogName + " | " + cases.Upper(language.Und).String(name)
}

// rustStringLiteral renders s as a double-quoted Rust string literal.
// Non-printable and combining characters are written as \u{..} escapes,
// much like Rust's own Debug formatting of strings.
func rustStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if !unicode.IsPrint(r) || unicode.In(r, unicode.Mn, unicode.Me) {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
