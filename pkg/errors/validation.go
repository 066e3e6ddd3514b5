package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds block, image and region identifiers.
const maxIDLength = 128

// idRegex matches identifiers accepted from intake: letters, digits, dot,
// underscore, colon and dash, starting with a letter or digit.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// schemeRegex matches a URI scheme.
var schemeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)

// ValidateID validates a block or image identifier for safety and correctness.
// Identifiers travel back to the formatter and the advisory collaborator, so
// the rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - Maximum length of 128 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "identifier too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "identifier contains invalid characters: %q", id)
		}
	}

	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid identifier: %q", id)
	}

	return nil
}

// ValidateImageURI validates an image asset reference.
// Accepted forms are URLs with any scheme (https, file, s3, data...) and
// relative paths without traversal. The engine never dereferences the URI;
// it is handed through to the renderer.
func ValidateImageURI(uri string) error {
	if uri == "" {
		return New(ErrCodeInvalidInput, "image uri cannot be empty")
	}

	const maxURILength = 2048
	if len(uri) > maxURILength {
		return New(ErrCodeInvalidInput, "image uri too long (max %d characters)", maxURILength)
	}

	for _, r := range uri {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image uri contains invalid characters")
		}
	}

	if strings.Contains(uri, "\\") {
		return New(ErrCodeInvalidInput, "image uri cannot contain backslashes")
	}

	if scheme, _, ok := strings.Cut(uri, ":"); ok && schemeRegex.MatchString(scheme) {
		return nil
	}

	switch {
	case strings.Contains(uri, "://"):
		return New(ErrCodeInvalidInput, "image uri has a malformed scheme")
	case strings.Contains(uri, ".."):
		return New(ErrCodeInvalidInput, "image uri cannot contain path traversal sequences (..)")
	}

	return nil
}
