package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxDomainSize bounds a single variable's domain. Anything bigger is almost
// certainly a corrupted problem file rather than a real discrete variable.
const maxDomainSize = 1 << 24

// ValidateVariableName validates a variable name used in problem files and
// on the command line (--query, --evidence).
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No ',' or '=' (they separate list items and evidence pairs)
//   - Maximum length of 128 characters
func ValidateVariableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "variable name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "variable name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "variable name %q contains whitespace or control characters", name)
		}
	}

	if strings.ContainsAny(name, ",=") {
		return New(ErrCodeInvalidInput, "variable name %q contains reserved characters", name)
	}

	return nil
}

// ValidateDomain validates the number of states of a variable.
func ValidateDomain(name string, domain int) error {
	if domain <= 0 {
		return New(ErrCodeInvalidInput, "variable %q: domain must be positive, got %d", name, domain)
	}
	if domain > maxDomainSize {
		return New(ErrCodeInvalidInput, "variable %q: domain %d exceeds limit %d", name, domain, maxDomainSize)
	}
	return nil
}

// ValidateState validates a state value against a variable's domain.
func ValidateState(name string, state, domain int) error {
	if state < 0 || state >= domain {
		return New(ErrCodeInvalidIndex, "variable %q: state %d outside domain [0,%d)", name, state, domain)
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in a
// configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}

// redisAddrRegex matches host:port pairs accepted for the Redis cache backend.
var redisAddrRegex = regexp.MustCompile(`^[A-Za-z0-9._-]*:[0-9]{1,5}$`)

// ValidateRedisAddr validates a Redis address of the form host:port.
func ValidateRedisAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "redis address cannot be empty")
	}
	if !redisAddrRegex.MatchString(addr) {
		return New(ErrCodeInvalidConfig, "invalid redis address %q (want host:port)", addr)
	}
	return nil
}
