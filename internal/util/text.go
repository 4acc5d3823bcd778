package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// StripNewlines removes line breaks without inserting separators.
func StripNewlines(input string) string {
	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(input)
}

func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
