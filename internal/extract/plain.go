package extract

import (
	"strings"
	"unicode/utf8"
)

// fromPlain returns content as a string. Invalid UTF-8 sequences are
// replaced with U+FFFD so downstream chunking always sees valid text.
func fromPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}
