package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds element names accepted from netlist files.
const maxNameLength = 1024

// ValidateName validates an element name (instance, pin, net, master) read
// from a netlist description. DEF allows almost any printable character in
// names (hierarchy separators, escaped brackets), so only emptiness, length
// and control characters are rejected.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidNetlist, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidNetlist, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNetlist, "%s name %q contains control characters", kind, name)
		}
	}

	return nil
}

// ValidatePath validates a user-supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURI validates a connection URI against the allowed schemes.
func ValidateURI(raw string, schemes ...string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URI cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(raw, s+"://") {
			return nil
		}
	}

	return New(ErrCodeInvalidInput, "URI must use one of the schemes: %s", strings.Join(schemes, ", "))
}
