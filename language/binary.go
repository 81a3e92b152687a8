package language

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// binarySniffSize is how many leading bytes are checked for NUL.
const binarySniffSize = 512

// IsBinaryContent checks if the given byte slice appears to be binary content.
// It checks the first 512 bytes (or less) for null bytes, which indicates binary data.
func IsBinaryContent(data []byte) bool {
	checkSize := min(len(data), binarySniffSize)
	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// DecodeText returns data as a string. ok is false for binary content.
// Content that is not valid UTF-8 is decoded as ISO-8859-1, which maps
// every byte to a rune and therefore never fails.
func DecodeText(data []byte) (text string, ok bool) {
	if IsBinaryContent(data) {
		return "", false
	}
	if utf8.Valid(data) {
		return string(data), true
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
