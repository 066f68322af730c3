// Package storetest the shared test suite of cookiejar.Store implementations
package storetest

import (
	"sort"
	"testing"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Now the reference time of the suite.
var Now = time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC)

// Cookie returns a persistent cookie created at Now.
func Cookie(name, value, domain, path string, expires time.Time) *cookiejar.Cookie {
	return &cookiejar.Cookie{
		Name:       name,
		Value:      value,
		Domain:     domain,
		Path:       path,
		Persistent: true,
		Expires:    expires,
		Created:    Now,
		LastAccess: Now,
	}
}

// Names returns the sorted names of the cookies.
func Names(cookies []*cookiejar.Cookie) []string {
	s := make([]string, 0, len(cookies))
	for _, c := range cookies {
		s = append(s, c.Name)
	}
	sort.Strings(s)
	return s
}

// Run runs the suite, newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) cookiejar.Store) {
	t.Run("Upsert", func(t *testing.T) {
		s := newStore(t)

		first := Cookie("a", "1", "example.com", "/", Now.Add(time.Hour))
		first.Seq = 1
		require.NoError(t, s.Upsert(first))
		first.Value = "mutated"

		cookies, err := s.ForHost("example.com")
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		assert.Equal(t, "1", cookies[0].Value)

		second := Cookie("a", "2", "example.com", "/", Now.Add(2*time.Hour))
		second.Created = Now.Add(time.Minute)
		second.Seq = 7
		second.Secure = true
		second.SameSite = cookiejar.SameSiteLax
		require.NoError(t, s.Upsert(second))

		cookies, err = s.ForHost("example.com")
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		got := cookies[0]
		assert.Equal(t, "2", got.Value)
		assert.True(t, got.Created.Equal(Now), "created %v", got.Created)
		assert.Equal(t, uint64(1), got.Seq)
		assert.True(t, got.Expires.Equal(Now.Add(2*time.Hour)))
		assert.True(t, got.Secure)
		assert.Equal(t, cookiejar.SameSiteLax, got.SameSite)
	})

	t.Run("Attributes", func(t *testing.T) {
		s := newStore(t)
		c := &cookiejar.Cookie{
			Name:       "q",
			Value:      "quoted value",
			Quoted:     true,
			Domain:     "example.com",
			HostOnly:   true,
			Path:       "/api",
			HttpOnly:   true,
			SameSite:   cookiejar.SameSiteStrict,
			Created:    Now,
			LastAccess: Now,
			Seq:        3,
		}
		require.NoError(t, s.Upsert(c))

		cookies, err := s.All()
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		got := cookies[0]
		assert.Equal(t, c.Key(), got.Key())
		assert.True(t, got.Quoted)
		assert.True(t, got.HostOnly)
		assert.True(t, got.HttpOnly)
		assert.False(t, got.Persistent)
		assert.Equal(t, cookiejar.SameSiteStrict, got.SameSite)
		assert.Equal(t, uint64(3), got.Seq)
		assert.Equal(t, `q="quoted value"`, got.String())
	})

	t.Run("ForHost", func(t *testing.T) {
		s := newStore(t)
		expires := Now.Add(time.Hour)
		for _, c := range []*cookiejar.Cookie{
			Cookie("root", "1", "example.com", "/", expires),
			Cookie("www", "2", "www.example.com", "/", expires),
			Cookie("api", "3", "api.example.com", "/", expires),
			Cookie("other", "4", "notexample.com", "/", expires),
		} {
			require.NoError(t, s.Upsert(c))
		}

		cookies, err := s.ForHost("www.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "www"}, Names(cookies))

		cookies, err = s.ForHost("example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"root"}, Names(cookies))

		cookies, err = s.ForHost("missing.org")
		require.NoError(t, err)
		assert.Empty(t, cookies)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		expires := Now.Add(time.Hour)
		a := Cookie("a", "1", "example.com", "/", expires)
		b := Cookie("a", "2", "example.com", "/api", expires)
		require.NoError(t, s.Upsert(a))
		require.NoError(t, s.Upsert(b))

		require.NoError(t, s.Delete(b.Key(), cookiejar.Key{Domain: "missing.com", Path: "/", Name: "x"}))
		cookies, err := s.All()
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		assert.Equal(t, "/", cookies[0].Path)

		require.NoError(t, s.Delete(a.Key()))
		cookies, err = s.ForHost("example.com")
		require.NoError(t, err)
		assert.Empty(t, cookies)
	})

	t.Run("RemoveExpired", func(t *testing.T) {
		s := newStore(t)
		expired := Cookie("expired", "1", "example.com", "/", Now)
		later := Cookie("later", "2", "example.com", "/", Now.Add(time.Hour))
		session := &cookiejar.Cookie{Name: "session", Value: "3", Domain: "example.com", Path: "/", Created: Now, LastAccess: Now}
		for _, c := range []*cookiejar.Cookie{expired, later, session} {
			require.NoError(t, s.Upsert(c))
		}

		// a key that is not expired is kept
		require.NoError(t, s.RemoveExpired(Now, later.Key()))
		cookies, err := s.All()
		require.NoError(t, err)
		assert.Len(t, cookies, 3)

		require.NoError(t, s.RemoveExpired(Now, expired.Key()))
		cookies, err = s.All()
		require.NoError(t, err)
		assert.Equal(t, []string{"later", "session"}, Names(cookies))

		require.NoError(t, s.RemoveExpired(Now.Add(2*time.Hour)))
		cookies, err = s.All()
		require.NoError(t, err)
		assert.Equal(t, []string{"session"}, Names(cookies))
	})

	t.Run("FarFuture", func(t *testing.T) {
		s := newStore(t)
		expires := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
		require.NoError(t, s.Upsert(Cookie("forever", "1", "example.com", "/", expires)))

		require.NoError(t, s.RemoveExpired(Now, cookiejar.Key{Domain: "example.com", Path: "/", Name: "forever"}))
		require.NoError(t, s.RemoveExpired(Now))
		cookies, err := s.ForHost("example.com")
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Expires.Equal(expires), "expires %v", cookies[0].Expires)
		assert.False(t, cookies[0].Expired(Now))
	})

	t.Run("RemoveAll", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(Cookie("a", "1", "example.com", "/", Now.Add(time.Hour))))
		require.NoError(t, s.Upsert(Cookie("b", "2", "other.com", "/", Now.Add(time.Hour))))

		require.NoError(t, s.RemoveAll())
		cookies, err := s.All()
		require.NoError(t, err)
		assert.Empty(t, cookies)
	})
}
