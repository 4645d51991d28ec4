package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds chart identifiers. File-backed stores use the id as a
// file name, so it must stay well under common filesystem limits.
const maxIDLength = 128

// ValidateChartID validates a chart identifier for safety and correctness.
// It rejects ids that could be used for path traversal when a store maps ids
// to file names.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateChartID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "chart id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "chart id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "chart id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "chart id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateChartName validates a human-readable chart name.
func ValidateChartName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "chart name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "chart name too long (max 256 characters)")
	}
	for _, r := range name {
		if r == '\x00' || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidInput, "chart name contains invalid characters")
		}
	}
	return nil
}
