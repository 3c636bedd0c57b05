package parser

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText converts export bytes to a string. French bank exports arrive as
// UTF-8, ISO-8859-1, or Windows-1252; assuming UTF-8 silently corrupts
// accented characters, so invalid UTF-8 falls back to Windows-1252, which is a
// superset of the printable Latin-1 range.
func decodeText(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		// Windows1252 maps every byte; decode cannot fail in practice.
		return string(content)
	}
	return string(decoded)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader lowers a column header and strips diacritics so "Débit euros"
// matches "debit euros" regardless of export vintage.
func foldHeader(h string) string {
	folded, _, err := transform.String(foldTransformer, h)
	if err != nil {
		folded = h
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
