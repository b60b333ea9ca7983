package models

import (
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3,4}-[A-Z0-9]{4}-[A-Z0-9]{3}-[A-Z0-9]{3}$`)

// IsValidCode reports whether text is a canonical code such as ABC-1234-XYZ-001.
// Lowercase input is rejected; callers normalize first.
func IsValidCode(text string) bool {
	return codePattern.MatchString(text)
}

func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
