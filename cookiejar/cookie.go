package cookiejar

import (
	"net/http"
	"strings"
	"time"
)

// SameSite is the value of the SameSite cookie attribute.
// It is stored and reported, never enforced by the jar.
type SameSite int

const (
	SameSiteUnset SameSite = iota
	SameSiteStrict
	SameSiteLax
	SameSiteNone
)

var sameSiteNames = [...]string{
	SameSiteUnset:  "",
	SameSiteStrict: "Strict",
	SameSiteLax:    "Lax",
	SameSiteNone:   "None",
}

func (s SameSite) String() string {
	if s < 0 || int(s) >= len(sameSiteNames) {
		return ""
	}
	return sameSiteNames[s]
}

// ParseSameSite returns the SameSite mode of the attribute value v,
// case-insensitively. Unknown values are SameSiteUnset.
func ParseSameSite(v string) SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return SameSiteStrict
	case "lax":
		return SameSiteLax
	case "none":
		return SameSiteNone
	}
	return SameSiteUnset
}

func (s SameSite) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SameSite) UnmarshalText(text []byte) error {
	*s = ParseSameSite(string(text))
	return nil
}

var httpSameSite = [...]http.SameSite{
	SameSiteUnset:  http.SameSiteDefaultMode,
	SameSiteStrict: http.SameSiteStrictMode,
	SameSiteLax:    http.SameSiteLaxMode,
	SameSiteNone:   http.SameSiteNoneMode,
}

func sameSiteFromHTTP(s http.SameSite) SameSite {
	switch s {
	case http.SameSiteStrictMode:
		return SameSiteStrict
	case http.SameSiteLaxMode:
		return SameSiteLax
	case http.SameSiteNoneMode:
		return SameSiteNone
	}
	return SameSiteUnset
}

// Key is the identity of a stored cookie.
type Key struct {
	Domain string
	Path   string
	Name   string
}

func (k Key) String() string {
	return k.Domain + ";" + k.Path + ";" + k.Name
}

// Cookie is a cookie held by a Jar.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	// Quoted reports the value was received wrapped in double quotes.
	Quoted bool `json:"quoted,omitempty"`
	// Domain is the lower-case host or domain without a leading dot.
	Domain string `json:"domain"`
	// HostOnly cookies match Domain exactly, others also match its subdomains.
	HostOnly bool     `json:"hostOnly"`
	Path     string   `json:"path"`
	Secure   bool     `json:"secure"`
	HttpOnly bool     `json:"httpOnly"`
	SameSite SameSite `json:"sameSite"`
	// Persistent is false for session cookies, which have no Expires.
	Persistent bool      `json:"persistent"`
	Expires    time.Time `json:"expires"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"lastAccess"`
	// Seq orders cookies created within the same clock tick.
	Seq uint64 `json:"seq"`
}

// Key returns the (domain, path, name) identity of c.
func (c *Cookie) Key() Key {
	return Key{Domain: c.Domain, Path: c.Path, Name: c.Name}
}

// Expired reports whether c is expired at now.
func (c *Cookie) Expired(now time.Time) bool {
	return c.Persistent && !c.Expires.After(now)
}

// String returns the name=value pair as sent in a Cookie header.
func (c *Cookie) String() string {
	if c.Quoted {
		return c.Name + `="` + c.Value + `"`
	}
	return c.Name + "=" + c.Value
}

// HTTPCookie converts c to a net/http cookie.
func (c *Cookie) HTTPCookie() *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Quoted:   c.Quoted,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: http.SameSiteDefaultMode,
	}
	if c.SameSite >= 0 && int(c.SameSite) < len(httpSameSite) {
		hc.SameSite = httpSameSite[c.SameSite]
	}
	if !c.HostOnly {
		hc.Domain = c.Domain
	}
	if c.Persistent {
		hc.Expires = c.Expires
	}
	return hc
}

func (c *Cookie) clone() *Cookie {
	cp := *c
	return &cp
}
