package redis

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/cookiejar/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCookie connects to CRUMB_TEST_REDIS_URL with a prefix of its own,
// the tests are skipped without a redis server.
func newTestCookie(t *testing.T, prefix string, keepSession bool) *Cookie {
	t.Helper()
	url := os.Getenv("CRUMB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CRUMB_TEST_REDIS_URL not set")
	}
	c, err := NewCookie(Options{URL: url, Prefix: prefix, KeepSession: keepSession})
	require.NoError(t, err)
	return c
}

func testPrefix(t *testing.T) string {
	return fmt.Sprintf("crumb-test:%s:%d:", t.Name(), time.Now().UnixNano())
}

func TestNewCookieOptions(t *testing.T) {
	t.Parallel()
	_, err := NewCookie(Options{})
	assert.ErrorIs(t, err, ErrEmptyConnectionURL)

	_, err = NewCookie(Options{URL: "http://localhost"})
	assert.Error(t, err)
}

func TestCookieSuite(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) cookiejar.Store {
		c := newTestCookie(t, testPrefix(t), false)
		t.Cleanup(func() {
			_ = c.RemoveAll()
			_ = c.Close()
		})
		return c
	})
}

func TestCookieShared(t *testing.T) {
	t.Parallel()
	prefix := testPrefix(t)
	first := newTestCookie(t, prefix, true)
	defer first.Close()
	defer first.RemoveAll()
	second := newTestCookie(t, prefix, true)
	defer second.Close()

	a := cookiejar.New(cookiejar.Options{Store: first})
	b := cookiejar.New(cookiejar.Options{Store: second})
	require.NoError(t, a.SetCookie("id=1; Path=/", "https://example.com/"))

	str, err := b.GetCookieString("https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "id=1", str)

	// a new store without keep-session drops the session cookie
	third := newTestCookie(t, prefix, false)
	defer third.Close()
	str, err = b.GetCookieString("https://example.com/")
	require.NoError(t, err)
	assert.Empty(t, str)
}

func TestCookieRemoveExpiredReplaced(t *testing.T) {
	t.Parallel()
	prefix := testPrefix(t)
	first := newTestCookie(t, prefix, true)
	defer first.Close()
	defer first.RemoveAll()
	second := newTestCookie(t, prefix, true)
	defer second.Close()

	stale := storetest.Cookie("id", "old", "example.com", "/", storetest.Now)
	require.NoError(t, first.Upsert(stale))

	// the other client replaces the cookie after it was read as expired
	replaced := false
	err := first.removeIf([]cookiejar.Key{stale.Key()}, func(cookie *cookiejar.Cookie) bool {
		if !replaced {
			replaced = true
			require.NoError(t, second.Upsert(storetest.Cookie("id", "new", "example.com", "/", storetest.Now.Add(time.Hour))))
		}
		return cookie.Expired(storetest.Now)
	})
	require.NoError(t, err)

	cookies, err := first.ForHost("example.com")
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "new", cookies[0].Value)
}
