package fetch

import (
	"log/slog"
	"net/http"
	"strings"
)

// CookieJar the cookie operations used by CookieProcessor,
// implemented by *cookiejar.Jar.
type CookieJar interface {
	// GetCookieString returns the Cookie header value for the URL.
	GetCookieString(rawURL string) (string, error)
	// SetCookie stores a raw Set-Cookie value received from the URL.
	SetCookie(raw, rawURL string) error
}

// SetCookieExtractor extracts the raw Set-Cookie values of a response.
type SetCookieExtractor interface {
	SetCookieValues(res *http.Response) []string
}

// SetCookieExtractorFunc is an adapter to use a function as SetCookieExtractor.
type SetCookieExtractorFunc func(res *http.Response) []string

// SetCookieValues calls f(res).
func (f SetCookieExtractorFunc) SetCookieValues(res *http.Response) []string {
	return f(res)
}

// HeaderExtractor reads every Set-Cookie header line of the response.
type HeaderExtractor struct{}

// SetCookieValues returns the Set-Cookie header values.
func (HeaderExtractor) SetCookieValues(res *http.Response) []string {
	if res == nil {
		return nil
	}
	return res.Header.Values("Set-Cookie")
}

// CookieProcessor attaches the jar cookies to the requests and stores the
// response cookies into the jar. Cookie failures are logged, they never
// fail the request.
type CookieProcessor struct {
	Jar CookieJar
	// Extractor HeaderExtractor if nil
	Extractor SetCookieExtractor
	Logger    *slog.Logger
}

func (c *CookieProcessor) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ProcessRequest appends the jar cookies after the cookies already in
// the request Cookie header.
func (c *CookieProcessor) ProcessRequest(req *http.Request) {
	cookies, err := c.Jar.GetCookieString(req.URL.String())
	if err != nil {
		c.logger().Warn("cookie lookup failed", "url", req.URL.Redacted(), "error", err)
		return
	}
	if cookies == "" {
		return
	}
	if manual := req.Header.Values("Cookie"); len(manual) > 0 {
		cookies = strings.Join(manual, "; ") + "; " + cookies
	}
	req.Header.Set("Cookie", cookies)
}

// ProcessResponse stores each distinct Set-Cookie value of the response,
// a rejected cookie does not prevent the others from being stored.
func (c *CookieProcessor) ProcessResponse(res *http.Response) {
	if res.Request == nil || res.Request.URL == nil {
		return
	}
	extractor := c.Extractor
	if extractor == nil {
		extractor = HeaderExtractor{}
	}
	values := extractor.SetCookieValues(res)
	if len(values) == 0 {
		return
	}

	u := res.Request.URL.String()
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		if err := c.Jar.SetCookie(raw, u); err != nil {
			c.logger().Warn("cookie rejected", "url", res.Request.URL.Redacted(), "error", err)
		}
	}
}
