package validation

import (
	"strings"
	"testing"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

func TestValidateSource_ValidReferences(t *testing.T) {
	validator := NewSourceValidator()

	validSources := []string{
		"http://example.com/frame.jpg",
		"https://example.com/frame.png",
		"https://subdomain.example.com/path/to/frame.jpg",
		"http://192.168.1.1/frame.jpg",
		"https://account.blob.core.windows.net/frames/shot-001.png",
	}

	for _, source := range validSources {
		if err := validator.ValidateSource(source); err != nil {
			t.Errorf("Expected valid source %s to pass validation, got error: %v", source, err)
		}
	}
}

func TestValidateSource_Empty(t *testing.T) {
	validator := NewSourceValidator()

	for _, source := range []string{"", "   ", "\t\n"} {
		err := validator.ValidateSource(source)
		if err == nil {
			t.Errorf("Expected empty source '%s' to fail validation", source)
			continue
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error, got: %v", err)
		}
	}
}

func TestValidateSource_BadSchemeOrHost(t *testing.T) {
	validator := NewSourceValidator()

	badSources := []string{
		"not-a-url",
		"ftp://example.com/frame.jpg",
		"file://local/path/frame.jpg",
		"http://",
		"http:///path",
	}

	for _, source := range badSources {
		if err := validator.ValidateSource(source); err == nil {
			t.Errorf("Expected source '%s' to fail validation", source)
		}
	}
}

func TestValidateSource_TooLong(t *testing.T) {
	validator := NewSourceValidator()

	source := "https://example.com/" + strings.Repeat("a", maxSourceLength)
	if err := validator.ValidateSource(source); err == nil {
		t.Error("Expected overlong source to fail validation")
	}
}

func TestValidateSource_RestrictedHosts(t *testing.T) {
	validator := NewSourceValidatorWithOptions(
		[]string{"http", "https"},
		[]string{"example.com", "trusted.com"},
	)

	for _, source := range []string{
		"http://example.com/frame.jpg",
		"https://trusted.com/frame.png",
	} {
		if err := validator.ValidateSource(source); err != nil {
			t.Errorf("Expected allowed host source '%s' to pass, got error: %v", source, err)
		}
	}

	for _, source := range []string{
		"http://malicious.com/frame.jpg",
		"https://untrusted.com/frame.png",
	} {
		if err := validator.ValidateSource(source); err == nil {
			t.Errorf("Expected disallowed host source '%s' to fail validation", source)
		}
	}
}
