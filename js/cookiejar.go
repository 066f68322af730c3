package js

import (
	"errors"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/spf13/cast"
)

// CookieJarModule exposes a cookiejar.Jar to scripts.
//
//	cookieJar.set("https://example.com", "id=1; Path=/");
//	cookieJar.set("https://example.com", { name: "id", value: "1", maxAge: 3600 });
//	cookieJar.getString("https://example.com"); // "id=1"
type CookieJarModule struct{ *cookiejar.Jar }

// Instantiate returns the module object.
func (j *CookieJarModule) Instantiate(rt *goja.Runtime) (goja.Value, error) {
	if j.Jar == nil {
		return nil, errors.New("CookieJar can not nil")
	}
	return rt.ToValue(map[string]func(call goja.FunctionCall, rt *goja.Runtime) goja.Value{
		"get":       j.get,
		"getAll":    j.getAll,
		"getString": j.getString,
		"set":       j.set,
		"del":       j.del,
		"clear":     j.clear,
	}), nil
}

// get returns the first cookie of the name for the url, null if absent.
func (j *CookieJarModule) get(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	u := stringArg(call, rt, "get", 0)
	name := stringArg(call, rt, "get", 1)
	cookies, err := j.GetCookies(u)
	if err != nil {
		Throw(rt, err)
	}
	for _, cookie := range cookies {
		if cookie.Name == name {
			return toObj(cookie, rt)
		}
	}
	return goja.Null()
}

// getAll returns the cookies for the url, filtered by the optional name.
func (j *CookieJarModule) getAll(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	u := stringArg(call, rt, "getAll", 0)
	var name string
	if n := call.Argument(1); !isNullish(n) {
		name = n.String()
	}
	cookies, err := j.GetCookies(u)
	if err != nil {
		Throw(rt, err)
	}
	ret := make([]goja.Value, 0, len(cookies))
	for _, cookie := range cookies {
		if name != "" && cookie.Name != name {
			continue
		}
		ret = append(ret, toObj(cookie, rt))
	}
	return rt.ToValue(ret)
}

// getString returns the Cookie header value for the url.
func (j *CookieJarModule) getString(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	str, err := j.GetCookieString(stringArg(call, rt, "getString", 0))
	if err != nil {
		Throw(rt, err)
	}
	return rt.ToValue(str)
}

// set stores a raw Set-Cookie string or a cookie object for the url.
func (j *CookieJarModule) set(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	u := stringArg(call, rt, "set", 0)
	var err error
	switch v := call.Argument(1).Export().(type) {
	case string:
		err = j.SetCookie(v, u)
	case map[string]any:
		var in cookiejar.Input
		if in, err = toInput(v); err == nil {
			err = j.SetCookieInput(in, u)
		}
	default:
		err = errors.New("set second parameter must be cookie string or object")
	}
	if err != nil {
		Throw(rt, err)
	}
	return goja.Undefined()
}

// del removes the cookies sent to the url.
func (j *CookieJarModule) del(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	if err := j.RemoveCookies(stringArg(call, rt, "del", 0)); err != nil {
		Throw(rt, err)
	}
	return goja.Undefined()
}

// clear removes every cookie.
func (j *CookieJarModule) clear(_ goja.FunctionCall, rt *goja.Runtime) goja.Value {
	if err := j.RemoveAllCookies(); err != nil {
		Throw(rt, err)
	}
	return goja.Undefined()
}

func toObj(cookie *cookiejar.Cookie, rt *goja.Runtime) goja.Value {
	o := rt.NewObject()
	_ = o.Set("name", cookie.Name)
	_ = o.Set("value", cookie.Value)
	_ = o.Set("domain", cookie.Domain)
	_ = o.Set("hostOnly", cookie.HostOnly)
	_ = o.Set("path", cookie.Path)
	_ = o.Set("secure", cookie.Secure)
	_ = o.Set("httpOnly", cookie.HttpOnly)
	_ = o.Set("sameSite", strings.ToLower(cookie.SameSite.String()))
	if cookie.Persistent {
		_ = o.Set("expires", cookie.Expires.UnixMilli())
	} else {
		_ = o.Set("expires", goja.Null())
	}
	_ = o.Set("toString", func(goja.FunctionCall) goja.Value {
		return rt.ToValue(cookie.String())
	})
	return o
}

// toInput converts the cookie object, expires is in unix milliseconds.
func toInput(o map[string]any) (in cookiejar.Input, err error) {
	if in.Name, err = cast.ToStringE(o["name"]); err != nil {
		return
	}
	if in.Value, err = cast.ToStringE(o["value"]); err != nil {
		return
	}
	if in.Domain, err = cast.ToStringE(o["domain"]); err != nil {
		return
	}
	if in.Path, err = cast.ToStringE(o["path"]); err != nil {
		return
	}
	if in.MaxAge, err = cast.ToIntE(o["maxAge"]); err != nil {
		return
	}
	if expires, ok := o["expires"]; ok && expires != nil {
		var ms int64
		if ms, err = cast.ToInt64E(expires); err != nil {
			return
		}
		in.Expires = time.UnixMilli(ms)
	}
	in.Secure = cast.ToBool(o["secure"])
	in.HttpOnly = cast.ToBool(o["httpOnly"])
	in.SameSite = cookiejar.ParseSameSite(cast.ToString(o["sameSite"]))
	return
}
