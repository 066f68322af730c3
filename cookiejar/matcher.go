package cookiejar

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Target is a request URL reduced to what cookie matching needs.
type Target struct {
	Host   string
	Path   string
	Secure bool
}

// NewTarget canonicalizes u for matching.
func NewTarget(u *url.URL) (Target, error) {
	host, err := canonicalHost(u)
	if err != nil {
		return Target{}, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Target{Host: host, Path: path, Secure: isSecureScheme(u.Scheme)}, nil
}

func isSecureScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "https", "wss":
		return true
	}
	return false
}

// Match reports whether c is sent to t, ignoring expiry.
func (t Target) Match(c *Cookie) bool {
	return domainMatch(c, t.Host) && pathMatch(c.Path, t.Path) && (t.Secure || !c.Secure)
}

// domainMatch implements "domain-match" of RFC 6265 section 5.1.3.
func domainMatch(c *Cookie, host string) bool {
	if c.Domain == host {
		return true
	}
	return !c.HostOnly && hasDotSuffix(host, c.Domain)
}

// pathMatch implements "path-match" of RFC 6265 section 5.1.4.
func pathMatch(cookiePath, requestPath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if strings.HasPrefix(requestPath, cookiePath) {
		if cookiePath[len(cookiePath)-1] == '/' {
			return true // "/any/" matches "/any/path"
		} else if requestPath[len(cookiePath)] == '/' {
			return true // "/any" matches "/any/path"
		}
	}
	return false
}

// Select returns the cookies visible to t at now, most specific first,
// and the keys of the expired cookies it skipped. Same-name cookies of
// different scopes are all kept.
func Select(cookies []*Cookie, t Target, now time.Time) (selected []*Cookie, expired []Key) {
	for _, c := range cookies {
		if c.Expired(now) {
			expired = append(expired, c.Key())
			continue
		}
		if t.Match(c) {
			selected = append(selected, c)
		}
	}
	SortCookies(selected)
	return
}

// SortCookies orders cookies by longer path first, then earlier creation.
func SortCookies(cookies []*Cookie) {
	sort.SliceStable(cookies, func(i, j int) bool {
		a, b := cookies[i], cookies[j]
		if len(a.Path) != len(b.Path) {
			return len(a.Path) > len(b.Path)
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.Seq < b.Seq
	})
}

// Serialize joins cookies into a Cookie header value.
func Serialize(cookies []*Cookie) string {
	switch len(cookies) {
	case 0:
		return ""
	case 1:
		return cookies[0].String()
	}

	var b strings.Builder
	b.WriteString(cookies[0].String())
	for _, c := range cookies[1:] {
		b.WriteString("; ")
		b.WriteString(c.String())
	}
	return b.String()
}
