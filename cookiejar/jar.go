// Package cookiejar stores cookies received in Set-Cookie headers and
// selects the cookies to send with a request, following RFC 6265.
package cookiejar

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Options the Jar options
type Options struct {
	// Store defaults to an in-memory store.
	Store Store
	// PublicSuffixList rejects domain cookies for public suffixes. Nil
	// disables the check.
	PublicSuffixList PublicSuffixList
	Logger           *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Jar manages storage and use of cookies in HTTP requests.
// A Jar is safe for concurrent use by multiple goroutines and may be
// shared by any number of clients.
type Jar struct {
	mu     sync.RWMutex
	store  Store
	parser Parser
	log    *slog.Logger
	clock  func() time.Time
	seq    atomic.Uint64
}

// New returns a new Jar.
func New(opt Options) *Jar {
	jar := &Jar{
		store:  opt.Store,
		parser: Parser{PublicSuffixList: opt.PublicSuffixList},
		log:    opt.Logger,
		clock:  opt.Clock,
	}
	if jar.store == nil {
		jar.store = NewMemoryStore()
	}
	if jar.log == nil {
		jar.log = slog.Default()
	}
	if jar.clock == nil {
		jar.clock = time.Now
	}
	return jar
}

// SetCookie stores the cookie of one Set-Cookie value received from rawURL.
// A cookie that is already expired removes the stored cookie with the same
// key. On error the jar is unchanged.
func (j *Jar) SetCookie(raw, rawURL string) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return err
	}
	now := j.clock()
	c, err := j.parser.Parse(raw, u, now)
	if err != nil {
		return err
	}
	return j.set(c, now)
}

// SetCookieInput stores the cookie described by in for rawURL.
func (j *Jar) SetCookieInput(in Input, rawURL string) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return err
	}
	now := j.clock()
	c, err := j.parser.Build(in, u, now)
	if err != nil {
		return err
	}
	return j.set(c, now)
}

func (j *Jar) set(c *Cookie, now time.Time) error {
	c.Seq = j.seq.Add(1)

	j.mu.Lock()
	defer j.mu.Unlock()

	if c.Expired(now) {
		if err := j.store.Delete(c.Key()); err != nil {
			return fmt.Errorf("cookiejar: delete %s: %w", c.Key(), err)
		}
		j.log.Debug("cookie removed", "name", c.Name, "domain", c.Domain, "path", c.Path)
		return nil
	}
	if err := j.store.Upsert(c); err != nil {
		return fmt.Errorf("cookiejar: store %s: %w", c.Key(), err)
	}
	return nil
}

// GetCookies returns the cookies to send to rawURL, longest path first.
func (j *Jar) GetCookies(rawURL string) ([]*Cookie, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return j.cookies(u)
}

// GetCookieString returns the Cookie header value for rawURL, empty when no
// cookie matches.
func (j *Jar) GetCookieString(rawURL string) (string, error) {
	cookies, err := j.GetCookies(rawURL)
	if err != nil {
		return "", err
	}
	return Serialize(cookies), nil
}

func (j *Jar) cookies(u *url.URL) ([]*Cookie, error) {
	t, err := NewTarget(u)
	if err != nil {
		return nil, &URLError{URL: u.String(), Err: err}
	}
	now := j.clock()

	j.mu.RLock()
	stored, err := j.store.ForHost(t.Host)
	j.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("cookiejar: load %s: %w", t.Host, err)
	}

	selected, expired := Select(stored, t, now)
	if len(expired) > 0 {
		j.mu.Lock()
		err = j.store.RemoveExpired(now, expired...)
		j.mu.Unlock()
		if err != nil {
			j.log.Warn("failed to remove expired cookies", "host", t.Host, "error", err)
		}
	}
	return selected, nil
}

// RemoveCookies removes every cookie that would be sent to rawURL.
func (j *Jar) RemoveCookies(rawURL string) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return err
	}
	t, err := NewTarget(u)
	if err != nil {
		return &URLError{URL: rawURL, Err: err}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	stored, err := j.store.ForHost(t.Host)
	if err != nil {
		return fmt.Errorf("cookiejar: load %s: %w", t.Host, err)
	}
	var keys []Key
	for _, c := range stored {
		if t.Match(c) {
			keys = append(keys, c.Key())
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err = j.store.Delete(keys...); err != nil {
		return fmt.Errorf("cookiejar: delete: %w", err)
	}
	return nil
}

// RemoveAllCookies removes every cookie from the jar.
func (j *Jar) RemoveAllCookies() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.store.RemoveAll(); err != nil {
		return fmt.Errorf("cookiejar: clear: %w", err)
	}
	return nil
}

// All returns every unexpired cookie in the jar, ordered by domain then
// specificity.
func (j *Jar) All() ([]*Cookie, error) {
	now := j.clock()
	j.mu.RLock()
	stored, err := j.store.All()
	j.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("cookiejar: load: %w", err)
	}
	cookies := stored[:0]
	for _, c := range stored {
		if !c.Expired(now) {
			cookies = append(cookies, c)
		}
	}
	SortCookies(cookies)
	sortByDomain(cookies)
	return cookies, nil
}

// SetCookies implements http.CookieJar. Rejected cookies are logged and
// skipped.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, hc := range cookies {
		if err := j.SetCookieInput(InputFromHTTP(hc), u.String()); err != nil {
			j.log.Warn("cookie rejected", "url", u.Redacted(), "name", hc.Name, "error", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	cookies, err := j.cookies(u)
	if err != nil {
		j.log.Warn("failed to get cookies", "url", u.Redacted(), "error", err)
		return nil
	}
	result := make([]*http.Cookie, len(cookies))
	for i, c := range cookies {
		result[i] = &http.Cookie{Name: c.Name, Value: c.Value, Quoted: c.Quoted}
	}
	return result
}

func parseURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, &URLError{URL: rawURL}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &URLError{URL: rawURL, Err: err}
	}
	if u.Hostname() == "" {
		return nil, &URLError{URL: rawURL}
	}
	return u, nil
}

func sortByDomain(cookies []*Cookie) {
	sort.SliceStable(cookies, func(i, j int) bool {
		return cookies[i].Domain < cookies[j].Domain
	})
}
