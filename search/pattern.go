package search

import (
	"regexp"
	"unicode"
)

// CompileSmartCase compiles pattern case-insensitively unless it contains an
// upper-case letter. An empty pattern compiles to nil. Syntax errors refer
// to the pattern as written.
func CompileSmartCase(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil || hasUpper(pattern) {
		return re, err
	}
	return regexp.Compile("(?i)" + pattern)
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
