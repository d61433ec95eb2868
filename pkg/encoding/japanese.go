// Package encoding provides Shift-JIS text helpers for MMD motion and name-list files.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ShiftJISToUTF8 converts Shift-JIS encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func ShiftJISToUTF8(data []byte) string {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToShiftJIS converts a UTF-8 string to Shift-JIS encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToShiftJIS(s string) []byte {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedStringToUTF8 converts a fixed-size, null-terminated Shift-JIS field to UTF-8.
// A multi-byte character cut off at the end of the field is dropped.
func FixedStringToUTF8(data []byte) string {
	if nullIdx := bytes.IndexByte(data, 0); nullIdx >= 0 {
		data = data[:nullIdx]
	}
	return strings.TrimRight(ShiftJISToUTF8(data), string(utf8.RuneError))
}

// UTF8ToFixedString encodes s as Shift-JIS into a field of the given size,
// padded with null bytes. Names that do not fit are cut at a character boundary.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	n := 0
	for _, r := range s {
		enc := UTF8ToShiftJIS(string(r))
		if n+len(enc) > size {
			break
		}
		n += copy(result[n:], enc)
	}
	return result
}
