package cookiejar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathMatch(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		cookiePath, requestPath string
		match                   bool
	}{
		{"/", "/", true},
		{"/", "/anything", true},
		{"/api", "/api", true},
		{"/api", "/api/users", true},
		{"/api/", "/api/users", true},
		{"/api", "/apix", false},
		{"/api/users", "/api", false},
		{"/API", "/api", false},
	}
	for _, c := range testCases {
		assert.Equal(t, c.match, pathMatch(c.cookiePath, c.requestPath), "%s vs %s", c.cookiePath, c.requestPath)
	}
}

func TestTargetMatch(t *testing.T) {
	t.Parallel()
	hostOnly := &Cookie{Name: "h", Domain: "example.com", HostOnly: true, Path: "/"}
	domain := &Cookie{Name: "d", Domain: "example.com", Path: "/"}
	secure := &Cookie{Name: "s", Domain: "example.com", Path: "/", Secure: true}

	target, err := NewTarget(mustURL(t, "http://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "/", target.Path)
	assert.False(t, target.Secure)
	assert.True(t, target.Match(hostOnly))
	assert.True(t, target.Match(domain))
	assert.False(t, target.Match(secure))

	target, err = NewTarget(mustURL(t, "https://sub.EXAMPLE.com/x"))
	require.NoError(t, err)
	assert.True(t, target.Secure)
	assert.False(t, target.Match(hostOnly))
	assert.True(t, target.Match(domain))
	assert.True(t, target.Match(secure))

	target, err = NewTarget(mustURL(t, "wss://notexample.com"))
	require.NoError(t, err)
	assert.True(t, target.Secure)
	assert.False(t, target.Match(domain))
}

func TestSelect(t *testing.T) {
	t.Parallel()
	now := testNow
	cookies := []*Cookie{
		{Name: "a", Value: "root", Domain: "example.com", Path: "/", Created: now, Seq: 1},
		{Name: "a", Value: "api", Domain: "example.com", Path: "/api", Created: now.Add(time.Second), Seq: 2},
		{Name: "b", Value: "late", Domain: "example.com", Path: "/", Created: now.Add(time.Minute), Seq: 3},
		{Name: "c", Value: "tie", Domain: "example.com", Path: "/", Created: now.Add(time.Minute), Seq: 4},
		{Name: "old", Value: "x", Domain: "example.com", Path: "/", Persistent: true, Expires: now.Add(-time.Second)},
		{Name: "other", Value: "x", Domain: "example.com", Path: "/other"},
	}

	target, err := NewTarget(mustURL(t, "http://example.com/api/anything"))
	require.NoError(t, err)
	selected, expired := Select(cookies, target, now)

	assert.Equal(t, []Key{{"example.com", "/", "old"}}, expired)
	if assert.Len(t, selected, 4) {
		assert.Equal(t, "api", selected[0].Value)
		assert.Equal(t, "root", selected[1].Value)
		assert.Equal(t, "late", selected[2].Value)
		assert.Equal(t, "tie", selected[3].Value)
	}
	assert.Equal(t, "a=api; a=root; b=late; c=tie", Serialize(selected))
}

func TestSerialize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Serialize(nil))
	assert.Equal(t, "a=1", Serialize([]*Cookie{{Name: "a", Value: "1"}}))
	assert.Equal(t, `a="x y"; b=`, Serialize([]*Cookie{
		{Name: "a", Value: "x y", Quoted: true},
		{Name: "b"},
	}))
}
