package utils

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	patternCache sync.Map // pattern -> *regexp.Regexp
)

// MatchPrefix reports whether value matches pattern starting at its first
// character. The match need not consume the whole value unless the pattern
// ends with $.
func MatchPrefix(value, pattern string) (bool, error) {
	re, err := compileAnchored(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// SanitizeString removes control characters but keeps tabs and line breaks
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// IsBlank reports whether s has no visible content
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
