package js_test

import (
	"context"
	"testing"

	"github.com/dop251/goja"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/js"
	"github.com/shiroyk/crumb/js/modulestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCookieVM(t *testing.T, jar *cookiejar.Jar) js.VM {
	return modulestest.New(t, js.WithInitial(func(rt *goja.Runtime) {
		instance, err := (&js.CookieJarModule{Jar: jar}).Instantiate(rt)
		require.NoError(t, err)
		_ = rt.Set("cookieJar", instance)
	}))
}

func TestCookieJarModule(t *testing.T) {
	t.Parallel()
	jar := cookiejar.New(cookiejar.Options{})
	vm := newCookieVM(t, jar)

	_, err := vm.RunString(context.Background(), `
		cookieJar.set("https://example.com", "id=1; Path=/");
		cookieJar.set("https://example.com", { name: "tok", value: "abc", path: "/", maxAge: 3600, secure: true, sameSite: "lax" });
		assert.equal(cookieJar.getString("https://example.com/"), "id=1; tok=abc");
		assert.equal(cookieJar.getString("http://example.com/"), "id=1");

		const tok = cookieJar.get("https://example.com", "tok");
		assert.equal(tok.value, "abc");
		assert.equal(tok.sameSite, "lax");
		assert.true(tok.secure, "tok should be secure");
		assert.true(tok.expires > 0, "tok should be persistent");

		const id = cookieJar.get("https://example.com", "id");
		assert.equal(id.toString(), "id=1");
		assert.true(id.hostOnly, "id should be host only");
		assert.true(id.expires === null, "id should be a session cookie");
		assert.true(cookieJar.get("https://example.com", "missing") === null, "missing cookie should be null");

		assert.equal(cookieJar.getAll("https://example.com").length, 2);
		assert.equal(cookieJar.getAll("https://example.com", "id").length, 1);

		cookieJar.del("https://example.com");
		assert.equal(cookieJar.getString("https://example.com"), "");

		cookieJar.set("https://a.com", "a=1");
		cookieJar.clear();
		assert.equal(cookieJar.getString("https://a.com"), "");
	`)
	require.NoError(t, err)

	all, err := jar.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCookieJarModuleShared(t *testing.T) {
	t.Parallel()
	jar := cookiejar.New(cookiejar.Options{})
	require.NoError(t, jar.SetCookie("from=go", "http://example.com"))

	vm := newCookieVM(t, jar)
	_, err := vm.RunString(context.Background(), `
		assert.equal(cookieJar.getString("http://example.com"), "from=go");
		cookieJar.set("http://example.com", "from_js=1");
	`)
	require.NoError(t, err)

	str, err := jar.GetCookieString("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "from=go; from_js=1", str)
}

func TestCookieJarModuleErrors(t *testing.T) {
	t.Parallel()
	vm := newCookieVM(t, cookiejar.New(cookiejar.Options{}))

	for _, script := range []string{
		`cookieJar.set("http://example.com", "malformed")`,
		`cookieJar.set("http://example.com", "a=1; Domain=example.org")`,
		`cookieJar.set("http://example.com", 1)`,
		`cookieJar.set("http://example.com", { value: "no name" })`,
		`cookieJar.getString("")`,
		`cookieJar.getString()`,
		`cookieJar.get("http://example.com")`,
		`cookieJar.del("/relative")`,
	} {
		_, err := vm.RunString(context.Background(), script)
		assert.Error(t, err, script)
	}

	_, err := (&js.CookieJarModule{}).Instantiate(goja.New())
	assert.Error(t, err)
}
