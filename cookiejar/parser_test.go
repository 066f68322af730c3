package cookiejar

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

var testNow = time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseInput(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		raw  string
		want Input
	}{
		{"a=b", Input{Name: "a", Value: "b"}},
		{" a = b ", Input{Name: "a", Value: "b"}},
		{"a=", Input{Name: "a"}},
		{`a="b c"`, Input{Name: "a", Value: "b c", Quoted: true}},
		{"a=b=c", Input{Name: "a", Value: "b=c"}},
		{"a=b; Path=/x; Domain=.example.com; Secure; HttpOnly; SameSite=lax",
			Input{Name: "a", Value: "b", Path: "/x", Domain: ".example.com", Secure: true, HttpOnly: true, SameSite: SameSiteLax}},
		{"a=b; secure; HTTPONLY; samesite=STRICT", Input{Name: "a", Value: "b", Secure: true, HttpOnly: true, SameSite: SameSiteStrict}},
		{"a=b; Max-Age=60", Input{Name: "a", Value: "b", MaxAge: 60}},
		{"a=b; Max-Age=0", Input{Name: "a", Value: "b", MaxAge: -1}},
		{"a=b; Max-Age=-10", Input{Name: "a", Value: "b", MaxAge: -1}},
		{"a=b; Max-Age=1e3", Input{Name: "a", Value: "b"}},
		{"a=b; Max-Age=", Input{Name: "a", Value: "b"}},
		{"a=b; Expires=Wed, 21 Oct 2015 07:28:00 GMT",
			Input{Name: "a", Value: "b", Expires: time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)}},
		{"a=b; Expires=Wed, 21-Oct-2015 07:28:00 GMT",
			Input{Name: "a", Value: "b", Expires: time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)}},
		{"a=b; Expires=someday", Input{Name: "a", Value: "b"}},
		{"a=b; Max-Age=60; Expires=Wed, 21 Oct 2015 07:28:00 GMT", Input{Name: "a", Value: "b", MaxAge: 60}},
		{"a=b; Unknown=1; ; Foo", Input{Name: "a", Value: "b"}},
		{"a=b; SameSite=bogus", Input{Name: "a", Value: "b"}},
	}

	for _, c := range testCases {
		in, err := ParseInput(c.raw)
		if assert.NoError(t, err, c.raw) {
			assert.Equal(t, c.want, in, c.raw)
		}
	}
}

func TestParseInputMalformed(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "malformed", "novalue; Path=/"} {
		_, err := ParseInput(raw)
		assert.ErrorIs(t, err, ErrMalformedCookie, raw)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), raw)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	p := new(Parser)
	u := mustURL(t, "https://www.Example.com:8443/docs/index.html")

	c, err := p.Parse("sid=abc; Domain=.EXAMPLE.com; Secure; HttpOnly; SameSite=None", u, testNow)
	require.NoError(t, err)
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "example.com", c.Domain)
	assert.False(t, c.HostOnly)
	assert.Equal(t, "/docs", c.Path)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, SameSiteNone, c.SameSite)
	assert.False(t, c.Persistent)
	assert.Equal(t, testNow, c.Created)
	assert.Equal(t, Key{"example.com", "/docs", "sid"}, c.Key())

	c, err = p.Parse("lang=en", u, testNow)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", c.Domain)
	assert.True(t, c.HostOnly)

	c, err = p.Parse("lang=en; Path=relative", u, testNow)
	require.NoError(t, err)
	assert.Equal(t, "/docs", c.Path)

	c, err = p.Parse("lang=en; Path=/", u, testNow)
	require.NoError(t, err)
	assert.Equal(t, "/", c.Path)
}

func TestParseExpiry(t *testing.T) {
	t.Parallel()
	p := new(Parser)
	u := mustURL(t, "http://example.com/")

	c, err := p.Parse("a=b; Max-Age=60; Expires=Wed, 21 Oct 2015 07:28:00 GMT", u, testNow)
	require.NoError(t, err)
	assert.True(t, c.Persistent)
	assert.Equal(t, testNow.Add(time.Minute), c.Expires)

	c, err = p.Parse("a=b; Expires=Wed, 21 Oct 2015 07:28:00 GMT; Max-Age=60", u, testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Minute), c.Expires)

	c, err = p.Parse("a=b; Expires=Wed, 21 Oct 2015 07:28:00 GMT", u, testNow)
	require.NoError(t, err)
	assert.True(t, c.Expired(testNow))

	c, err = p.Parse("a=b; Max-Age=0", u, testNow)
	require.NoError(t, err)
	assert.True(t, c.Expired(testNow))

	c, err = p.Parse("a=b; Expires=not a date", u, testNow)
	require.NoError(t, err)
	assert.False(t, c.Persistent)
	assert.False(t, c.Expired(testNow.Add(100*365*24*time.Hour)))

	c, err = p.Parse("a=b; Max-Age=99999999999999999999999", u, testNow)
	require.NoError(t, err)
	assert.True(t, c.Expires.After(testNow))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	p := new(Parser)
	u := mustURL(t, "http://www.example.com/")

	testCases := []struct {
		raw string
		err error
	}{
		{"malformed", ErrMalformedCookie},
		{"=value", ErrInvalidName},
		{"a b=c", ErrInvalidName},
		{"a\x01=c", ErrInvalidName},
		{"a=b c", ErrInvalidValue},
		{"a=b,c", ErrInvalidValue},
		{`a=b"c`, ErrInvalidValue},
		{"a=b\\c", ErrInvalidValue},
		{"a=b\x7f", ErrInvalidValue},
		{"a=b; Domain=other.com", ErrDomainMismatch},
		{"a=b; Domain=ample.com", ErrDomainMismatch},
		{"a=b; Domain=sub.www.example.com", ErrDomainMismatch},
	}

	for _, c := range testCases {
		_, err := p.Parse(c.raw, u, testNow)
		assert.ErrorIs(t, err, c.err, c.raw)
	}
}

func TestParseDomain(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		url, raw string
		domain   string
		hostOnly bool
		err      error
	}{
		{"http://www.example.com", "a=b; Domain=example.com", "example.com", false, nil},
		{"http://www.example.com", "a=b; Domain=www.example.com", "www.example.com", false, nil},
		{"http://www.example.com", "a=b; Domain=.", "www.example.com", true, nil},
		{"http://www.example.com", "a=b; Domain=", "www.example.com", true, nil},
		{"http://www.example.com", "a=b; Domain=com", "", false, ErrDomainMismatch},
		{"http://example.co.uk", "a=b; Domain=co.uk", "", false, ErrDomainMismatch},
		{"http://co.uk", "a=b; Domain=co.uk", "co.uk", true, nil},
		{"http://127.0.0.1:8080", "a=b; Domain=127.0.0.1", "127.0.0.1", true, nil},
		{"http://127.0.0.1", "a=b; Domain=0.0.1", "", false, ErrDomainMismatch},
		{"http://[::1]/", "a=b", "::1", true, nil},
		{"http://bücher.example", "a=b; Domain=BÜCHER.example", "xn--bcher-kva.example", false, nil},
	}

	p := &Parser{PublicSuffixList: publicsuffix.List}
	for _, c := range testCases {
		cookie, err := p.Parse(c.raw, mustURL(t, c.url), testNow)
		if c.err != nil {
			assert.ErrorIs(t, err, c.err, c.raw)
			continue
		}
		if assert.NoError(t, err, c.raw) {
			assert.Equal(t, c.domain, cookie.Domain, c.raw)
			assert.Equal(t, c.hostOnly, cookie.HostOnly, c.raw)
		}
	}
}

func TestBuildFromHTTP(t *testing.T) {
	t.Parallel()
	p := new(Parser)
	u := mustURL(t, "https://example.com/a/b")

	c, err := p.Build(InputFromHTTP(&http.Cookie{
		Name:     "token",
		Value:    "xyz",
		Domain:   "example.com",
		MaxAge:   3600,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}), u, testNow)
	require.NoError(t, err)
	assert.Equal(t, "example.com", c.Domain)
	assert.False(t, c.HostOnly)
	assert.Equal(t, "/a", c.Path)
	assert.Equal(t, testNow.Add(time.Hour), c.Expires)
	assert.Equal(t, SameSiteLax, c.SameSite)

	hc := c.HTTPCookie()
	assert.Equal(t, "token", hc.Name)
	assert.Equal(t, "example.com", hc.Domain)
	assert.Equal(t, http.SameSiteLaxMode, hc.SameSite)

	unknown := &Cookie{Name: "a", Value: "1", Path: "/", SameSite: SameSite(9)}
	assert.Equal(t, http.SameSiteDefaultMode, unknown.HTTPCookie().SameSite)
	assert.Equal(t, "", unknown.SameSite.String())

	_, err = p.Build(Input{Name: "bad name", Value: "x"}, u, testNow)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = p.Build(Input{Name: "a", Value: "x", Domain: "evil.com"}, u, testNow)
	assert.ErrorIs(t, err, ErrDomainMismatch)
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()
	testCases := map[string]string{
		"":       "/",
		"/":      "/",
		"/a":     "/",
		"/a/b":   "/a",
		"/a/b/":  "/a/b",
		"/a/b/c": "/a/b",
		"a/b":    "/",
	}
	for p, want := range testCases {
		assert.Equal(t, want, defaultPath(p), p)
	}
}

func TestSameSite(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SameSiteStrict, ParseSameSite("Strict"))
	assert.Equal(t, SameSiteLax, ParseSameSite("LAX"))
	assert.Equal(t, SameSiteNone, ParseSameSite("none"))
	assert.Equal(t, SameSiteUnset, ParseSameSite(""))
	assert.Equal(t, "Lax", SameSiteLax.String())
	assert.Equal(t, "", SameSite(42).String())

	b, err := json.Marshal(struct{ S SameSite }{SameSiteNone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"S":"None"}`, string(b))
	var v struct{ S SameSite }
	require.NoError(t, json.Unmarshal([]byte(`{"S":"strict"}`), &v))
	assert.Equal(t, SameSiteStrict, v.S)
}
