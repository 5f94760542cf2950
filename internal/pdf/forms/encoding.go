package forms

import (
	"encoding/hex"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// encodeText builds a PDF text string for /V. ASCII stays a literal
// string; anything else becomes UTF-16BE with a byte order mark.
func encodeText(s string) types.Object {
	if isASCII(s) {
		return types.StringLiteral(escapeLiteral(s))
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	utf16, _, err := transform.String(enc, s)
	if err != nil {
		return types.StringLiteral(escapeLiteral(s))
	}
	return types.HexLiteral(hex.EncodeToString([]byte(utf16)))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`(`, `\(`,
	`)`, `\)`,
	"\r", `\r`,
	"\n", `\n`,
)

// escapeLiteral escapes s for use between parentheses in a content stream
// or literal string object.
func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// winAnsi encodes s for a WinAnsiEncoding font. Unmappable runes become
// the encoder's replacement byte.
func winAnsi(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, _, err := transform.String(enc, s)
	if err != nil {
		return s
	}
	return out
}
