package validator

import (
	"regexp"
	"strings"

	"github.com/darkodi/urlshorten/internal/errors"
)

// urlPattern accepts http, https and ftp URLs whose host part starts with a
// character other than whitespace, '/', '$', '.', '?' or '#'.
var urlPattern = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#][^\s]*$`)

// IsValidURL reports whether s is an acceptable URL. The check is purely
// syntactic.
func IsValidURL(s string) bool {
	return urlPattern.MatchString(s)
}

// URLValidator validates URL inputs
type URLValidator struct {
	maxLength     int
	maxCodeLength int
}

// NewURLValidator creates a validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		maxLength:     2048,
		maxCodeLength: 64,
	}
}

// ValidateURL validates a URL string
func (v *URLValidator) ValidateURL(rawURL string) *errors.AppError {
	// Check if empty
	if strings.TrimSpace(rawURL) == "" {
		return errors.MissingField("url")
	}

	if len(rawURL) > v.maxLength {
		return errors.InvalidURL("URL exceeds maximum length")
	}

	if !IsValidURL(rawURL) {
		return errors.InvalidURL("URL must be http, https or ftp without whitespace")
	}

	return nil
}

// ValidateCode rejects codes that cannot possibly be stored.
func (v *URLValidator) ValidateCode(code string) *errors.AppError {
	if code == "" || len(code) > v.maxCodeLength {
		return errors.NotFound()
	}
	return nil
}

// WithMaxLength sets maximum URL length
func (v *URLValidator) WithMaxLength(length int) *URLValidator {
	v.maxLength = length
	return v
}
