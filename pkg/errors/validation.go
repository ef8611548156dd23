package errors

import (
	"strings"
	"unicode"
)

// ValidateDumpKey validates a discovery-dump key before it becomes a file
// name under the store's repositories directory.
//
// Keys are plain file name stems such as "flathub" or "gitlab_gnome_org":
//   - No empty keys
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateDumpKey(key string) error {
	return validateStem("dump key", key, 128, ErrCodeInvalidInput)
}

// ValidateRecordID validates a project identifier before it becomes a
// record file name under the store's projects directory. The rules are
// those of [ValidateDumpKey] with a 255 character limit.
func ValidateRecordID(id string) error {
	return validateStem("project id", id, 255, ErrCodeInvalidIdentifier)
}

func validateStem(what, s string, maxLen int, code Code) error {
	if s == "" {
		return New(code, "%s cannot be empty", what)
	}

	if len(s) > maxLen {
		return New(code, "%s too long (max %d characters)", what, maxLen)
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return New(code, "%s contains invalid control characters", what)
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(s, pattern) {
			return New(code, "%s contains invalid characters: %q", what, pattern)
		}
	}

	return nil
}

// ValidatePath validates a file path within a repository checkout.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
