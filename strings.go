package ffd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// codePage is the legacy single-byte Cyrillic code page that fiscal
// documents use for all text.
var codePage = charmap.CodePage866

// encodeString returns s in the document code page.
func encodeString(s string) ([]byte, error) {
	ret := make([]byte, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, sz := utf8.DecodeRuneInString(s[i:]); sz == 1 {
				return nil, fmt.Errorf("%w: invalid UTF-8 at offset %d", ErrInvalidString, i)
			}
		}
		b, ok := codePage.EncodeRune(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q not representable in %s", ErrInvalidString, r, codePage)
		}
		ret = append(ret, b)
	}
	return ret, nil
}

// decodeString returns the UTF-8 form of bs, which is in the document
// code page.
func decodeString(bs []byte) (string, error) {
	var ret strings.Builder
	ret.Grow(len(bs))
	for i, b := range bs {
		r := codePage.DecodeByte(b)
		if r == utf8.RuneError {
			return "", fmt.Errorf("%w: byte %#02x at offset %d not defined in %s", ErrInvalidString, b, i, codePage)
		}
		ret.WriteRune(r)
	}
	return ret.String(), nil
}
