package js_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dop251/goja"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/fetch"
	"github.com/shiroyk/crumb/js"
	"github.com/shiroyk/crumb/js/modulestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPModule(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "xyz", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.Header.Get("Cookie")))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	jar := cookiejar.New(cookiejar.Options{})
	vm := modulestest.New(t, js.WithInitial(func(rt *goja.Runtime) {
		cookies, err := (&js.CookieJarModule{Jar: jar}).Instantiate(rt)
		require.NoError(t, err)
		_ = rt.Set("cookieJar", cookies)
		client, err := (&js.HTTPModule{Fetch: fetch.NewFetcher(fetch.Options{Jar: jar})}).Instantiate(rt)
		require.NoError(t, err)
		_ = rt.Set("http", client)
		_ = rt.Set("url", ts.URL)
	}))

	_, err := vm.RunString(context.Background(), `
		const login = http.get(url + "/login");
		assert.equal(login.status, 200);
		assert.true(login.json().ok, "login should be ok");
		assert.equal(cookieJar.getString(url), "token=xyz");

		const res = http.get(url + "/echo", { "Cookie": "manual=1" });
		assert.equal(res.text(), "manual=1; token=xyz");

		cookieJar.clear();
		assert.equal(http.post(url + "/echo").text(), "");
	`)
	assert.NoError(t, err)
}
