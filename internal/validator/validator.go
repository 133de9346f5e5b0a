package validator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/darkodi/alias-shortener/internal/model"
)

// Field names as they appear in the request body
const (
	FieldFullURL = "fullUrl"
)

const (
	msgBlank   = "must not be blank"
	msgInvalid = "must be a valid URL"
)

// URLValidator validates shorten requests
type URLValidator struct {
	maxLength      int
	blockedDomains []string
}

// NewURLValidator creates a validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		maxLength:      2048,
		blockedDomains: []string{},
	}
}

// ValidateShortenRequest returns field -> message for every invalid field, or
// nil when req is acceptable. customAlias is free-form and never checked here.
func (v *URLValidator) ValidateShortenRequest(req model.CreateURLRequest) map[string]string {
	errs := make(map[string]string)

	if msg := v.validateURL(req.FullURL); msg != "" {
		errs[FieldFullURL] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v *URLValidator) validateURL(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return msgBlank
	}

	if len(rawURL) > v.maxLength {
		return fmt.Sprintf("must be at most %d characters", v.maxLength)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return msgInvalid
	}

	// absolute: needs a scheme and a host
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return msgInvalid
	}

	if v.isBlockedDomain(parsedURL.Hostname()) {
		return "domain is not allowed"
	}

	return ""
}

func (v *URLValidator) isBlockedDomain(host string) bool {
	host = strings.ToLower(host)
	for _, blocked := range v.blockedDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// ============================================================
// CONFIGURATION METHODS
// ============================================================

// WithMaxLength sets maximum URL length; values below 1 keep the current limit
func (v *URLValidator) WithMaxLength(length int) *URLValidator {
	if length > 0 {
		v.maxLength = length
	}
	return v
}

// WithBlockedDomains adds domains to block list
func (v *URLValidator) WithBlockedDomains(domains ...string) *URLValidator {
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			v.blockedDomains = append(v.blockedDomains, d)
		}
	}
	return v
}
