package cookiejar

import (
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/idna"
)

// PublicSuffixList provides the public suffix of a domain. It has the same
// method set as golang.org/x/net/publicsuffix.List.
type PublicSuffixList interface {
	PublicSuffix(domain string) string
	String() string
}

// Input is a cookie described by its attributes rather than a Set-Cookie
// string. It goes through the same validation as a parsed string.
type Input struct {
	Name   string
	Value  string
	Quoted bool
	// Domain is the Domain attribute. Empty means a host-only cookie.
	Domain string
	// Path is the Path attribute. Empty or relative means the default path.
	Path string
	// MaxAge=0 means no Max-Age attribute specified.
	// MaxAge<0 means delete cookie now, equivalently 'Max-Age: 0'.
	// MaxAge>0 means Max-Age attribute present and given in seconds.
	MaxAge   int
	Expires  time.Time
	Secure   bool
	HttpOnly bool
	SameSite SameSite
}

// InputFromHTTP returns the Input equivalent of a net/http cookie.
func InputFromHTTP(c *http.Cookie) Input {
	in := Input{
		Name:     c.Name,
		Value:    c.Value,
		Quoted:   c.Quoted,
		Domain:   c.Domain,
		Path:     c.Path,
		MaxAge:   c.MaxAge,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: sameSiteFromHTTP(c.SameSite),
	}
	if c.RawExpires != "" || !c.Expires.IsZero() {
		in.Expires = c.Expires
	}
	return in
}

// expiresLayouts are tried in order when reading the Expires attribute.
var expiresLayouts = []string{
	time.RFC1123,
	"Mon, 02-Jan-2006 15:04:05 MST",
	time.RFC850,
	"Mon, 02-Jan-06 15:04:05 MST",
	time.ANSIC,
	time.RFC1123Z,
}

// maxAgeLimit bounds Max-Age so that now+Max-Age does not overflow.
var maxAgeLimit = int(math.MaxInt64 / int64(time.Second) / 2)

// ParseInput splits a Set-Cookie string into its name, value and attributes.
// Unknown attributes are ignored.
func ParseInput(raw string) (Input, error) {
	var in Input
	pair, attrs, _ := strings.Cut(raw, ";")
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		return in, parseError("", ErrMalformedCookie)
	}
	in.Name = strings.TrimSpace(name)
	in.Value = strings.TrimSpace(value)
	if len(in.Value) > 1 && in.Value[0] == '"' && in.Value[len(in.Value)-1] == '"' {
		in.Value = in.Value[1 : len(in.Value)-1]
		in.Quoted = true
	}

	var maxAgeSet bool
	for len(attrs) > 0 {
		var part string
		part, attrs, _ = strings.Cut(attrs, ";")
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		attr, val, _ := strings.Cut(part, "=")
		attr = strings.ToLower(strings.TrimSpace(attr))
		val = strings.TrimSpace(val)

		switch attr {
		case "domain":
			in.Domain = val
		case "path":
			in.Path = val
		case "max-age":
			secs, ok := parseMaxAge(val)
			if !ok {
				continue
			}
			maxAgeSet = true
			in.MaxAge = secs
		case "expires":
			if maxAgeSet {
				continue
			}
			if t, ok := parseExpires(val); ok {
				in.Expires = t
			}
		case "secure":
			in.Secure = true
		case "httponly":
			in.HttpOnly = true
		case "samesite":
			in.SameSite = ParseSameSite(val)
		}
	}
	return in, nil
}

// parseMaxAge reads a Max-Age value. Zero and negative values are
// reported as -1, which means expire now.
func parseMaxAge(v string) (int, bool) {
	if v == "" || !(v[0] == '-' || isDigit(v[0])) {
		return 0, false
	}
	for i := 1; i < len(v); i++ {
		if !isDigit(v[i]) {
			return 0, false
		}
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
			return 0, false
		}
		if v[0] == '-' {
			return -1, true
		}
		return maxAgeLimit, true
	}
	if secs <= 0 {
		return -1, true
	}
	return min(secs, maxAgeLimit), true
}

func parseExpires(v string) (time.Time, bool) {
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// Parser turns Set-Cookie strings into cookies scoped to a request URL.
type Parser struct {
	// PublicSuffixList, if set, rejects Domain attributes naming a public
	// suffix such as "com" or "co.uk".
	PublicSuffixList PublicSuffixList
}

// Parse parses one Set-Cookie value received from u.
func (p *Parser) Parse(raw string, u *url.URL, now time.Time) (*Cookie, error) {
	in, err := ParseInput(raw)
	if err != nil {
		return nil, err
	}
	return p.Build(in, u, now)
}

// Build validates in against u and returns the cookie it describes.
func (p *Parser) Build(in Input, u *url.URL, now time.Time) (*Cookie, error) {
	if in.Name == "" || !httpguts.ValidHeaderFieldName(in.Name) {
		return nil, parseError(in.Name, ErrInvalidName)
	}
	if !validCookieValue(in.Value, in.Quoted) {
		return nil, parseError(in.Name, ErrInvalidValue)
	}

	host, err := canonicalHost(u)
	if err != nil {
		return nil, &URLError{URL: u.String(), Err: err}
	}
	domain, hostOnly, err := p.domain(host, in.Domain)
	if err != nil {
		return nil, parseError(in.Name, err)
	}

	path := in.Path
	if path == "" || path[0] != '/' {
		path = defaultPath(u.Path)
	}

	c := &Cookie{
		Name:       in.Name,
		Value:      in.Value,
		Quoted:     in.Quoted,
		Domain:     domain,
		HostOnly:   hostOnly,
		Path:       path,
		Secure:     in.Secure,
		HttpOnly:   in.HttpOnly,
		SameSite:   in.SameSite,
		Created:    now,
		LastAccess: now,
	}

	switch {
	case in.MaxAge < 0:
		c.Persistent = true
		c.Expires = time.Unix(1, 0).UTC()
	case in.MaxAge > 0:
		c.Persistent = true
		c.Expires = now.Add(time.Duration(min(in.MaxAge, maxAgeLimit)) * time.Second)
	case !in.Expires.IsZero():
		c.Persistent = true
		c.Expires = in.Expires.UTC()
	}
	return c, nil
}

// domain resolves the Domain attribute against the canonical request host.
// It never rewrites a mismatching attribute to the host.
func (p *Parser) domain(host, attr string) (string, bool, error) {
	if attr == "" {
		return host, true, nil
	}
	domain := strings.TrimPrefix(attr, ".")
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return host, true, nil
	}
	domain, err := toASCII(strings.ToLower(domain))
	if err != nil {
		return "", false, ErrDomainMismatch
	}

	if isIP(host) {
		if domain != host {
			return "", false, ErrDomainMismatch
		}
		return host, true, nil
	}

	if p.PublicSuffixList != nil {
		if ps := p.PublicSuffixList.PublicSuffix(domain); ps != "" && ps == domain {
			if domain == host {
				return host, true, nil
			}
			return "", false, ErrDomainMismatch
		}
	}

	if domain != host && !hasDotSuffix(host, domain) {
		return "", false, ErrDomainMismatch
	}
	return domain, false, nil
}

// validCookieValue checks for RFC 6265 cookie-octets. Quoted values may
// also carry spaces and commas.
func validCookieValue(v string, quoted bool) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		switch {
		case b == ' ' || b == ',':
			if !quoted {
				return false
			}
		case b < 0x21 || b > 0x7e, b == '"', b == ';', b == '\\':
			return false
		}
	}
	return true
}

// defaultPath is the directory of the request path, "/" when there is none.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// canonicalHost returns the lower-case ASCII host of u without port.
func canonicalHost(u *url.URL) (string, error) {
	host := strings.TrimSuffix(u.Hostname(), ".")
	if host == "" {
		return "", ErrInvalidURL
	}
	if isIP(host) {
		return host, nil
	}
	return toASCII(strings.ToLower(host))
}

func toASCII(s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return idna.ToASCII(s)
		}
	}
	return s, nil
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}

func hasDotSuffix(s, suffix string) bool {
	return len(s) > len(suffix) && s[len(s)-len(suffix)-1] == '.' && s[len(s)-len(suffix):] == suffix
}
