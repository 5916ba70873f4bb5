// Package validation checks frame source references before any network work
// is done on them.
package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

// maxSourceLength bounds source references to keep logs and queue entries sane.
const maxSourceLength = 2048

// SourceValidator validates frame source references.
type SourceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewSourceValidator creates a validator accepting http and https sources
// from any host.
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewSourceValidatorWithOptions creates a validator with custom scheme and
// host restrictions. An empty host list allows all hosts.
func NewSourceValidatorWithOptions(schemes []string, hosts []string) *SourceValidator {
	return &SourceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateSource checks that a source reference is usable as a fetch target.
func (v *SourceValidator) ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return apperrors.NewValidationError("source reference cannot be empty", nil)
	}
	if len(source) > maxSourceLength {
		return apperrors.NewValidationError("source reference is too long", nil)
	}

	parsed, err := url.Parse(source)
	if err != nil {
		return apperrors.NewValidationError("source reference is malformed", err)
	}
	if !v.schemeAllowed(parsed.Scheme) {
		return apperrors.NewValidationError("source scheme not allowed", nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("source must include a host", nil)
	}
	if len(v.allowedHosts) > 0 && !v.hostAllowed(parsed.Host) {
		return apperrors.NewValidationError("source host not allowed", nil)
	}
	return nil
}

func (v *SourceValidator) schemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

func (v *SourceValidator) hostAllowed(host string) bool {
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
