package cookiejar

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCookie the Set-Cookie string has no name=value pair
	ErrMalformedCookie = errors.New("malformed cookie")
	// ErrInvalidName the cookie name is empty or not a token
	ErrInvalidName = errors.New("invalid cookie name")
	// ErrInvalidValue the cookie value contains illegal octets
	ErrInvalidValue = errors.New("invalid cookie value")
	// ErrDomainMismatch the Domain attribute does not cover the request host
	ErrDomainMismatch = errors.New("cookie domain mismatch")
	// ErrInvalidURL the URL is empty or can not be parsed
	ErrInvalidURL = errors.New("invalid url")
)

// ParseError records a cookie that was rejected and the reason.
type ParseError struct {
	// Name of the rejected cookie, if one could be read.
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return "cookiejar: " + e.Err.Error()
	}
	return fmt.Sprintf("cookiejar: %s %q", e.Err, e.Name)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseError(name string, err error) error {
	return &ParseError{Name: name, Err: err}
}

// URLError records the URL a jar operation could not use.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	if e.Err == nil || errors.Is(e.Err, ErrInvalidURL) {
		return fmt.Sprintf("cookiejar: invalid url %q", e.URL)
	}
	return fmt.Sprintf("cookiejar: invalid url %q: %s", e.URL, e.Err)
}

func (e *URLError) Unwrap() []error {
	if e.Err == nil || errors.Is(e.Err, ErrInvalidURL) {
		return []error{ErrInvalidURL}
	}
	return []error{ErrInvalidURL, e.Err}
}
