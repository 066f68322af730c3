package js

import (
	"encoding/json"
	"errors"

	"github.com/dop251/goja"
	"github.com/shiroyk/crumb/fetch"
	"github.com/spf13/cast"
)

// HTTPModule exposes a fetch.Fetch to scripts, the requests go through
// the fetcher's cookie jar.
type HTTPModule struct{ fetch.Fetch }

// Instantiate returns the module object.
func (h *HTTPModule) Instantiate(rt *goja.Runtime) (goja.Value, error) {
	if h.Fetch == nil {
		return nil, errors.New("Fetch can not nil")
	}
	return rt.ToValue(map[string]func(call goja.FunctionCall, rt *goja.Runtime) goja.Value{
		"get":  h.get,
		"post": h.post,
		"head": h.head,
	}), nil
}

// get Make a GET request with URL and optional headers.
func (h *HTTPModule) get(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	header := cast.ToStringMapString(call.Argument(1).Export())
	res, err := h.Get(stringArg(call, rt, "get", 0), header)
	if err != nil {
		Throw(rt, err)
	}
	return toResponse(res, rt)
}

// post Make a POST request with URL, optional body, optional headers.
func (h *HTTPModule) post(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	u := stringArg(call, rt, "post", 0)
	body, err := Unwrap(call.Argument(1))
	if err != nil {
		Throw(rt, err)
	}
	header := cast.ToStringMapString(call.Argument(2).Export())
	res, err := h.Post(u, body, header)
	if err != nil {
		Throw(rt, err)
	}
	return toResponse(res, rt)
}

// head Make a HEAD request with URL and optional headers.
func (h *HTTPModule) head(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	header := cast.ToStringMapString(call.Argument(1).Export())
	res, err := h.Head(stringArg(call, rt, "head", 0), header)
	if err != nil {
		Throw(rt, err)
	}
	return toResponse(res, rt)
}

func toResponse(res *fetch.Response, rt *goja.Runtime) goja.Value {
	o := rt.NewObject()
	_ = o.Set("status", res.StatusCode)
	headers := make(map[string]any, len(res.Header))
	for k, v := range res.Header {
		headers[k] = v
	}
	_ = o.Set("headers", headers)
	_ = o.Set("text", func(goja.FunctionCall) goja.Value {
		return rt.ToValue(res.String())
	})
	_ = o.Set("json", func(goja.FunctionCall) goja.Value {
		var v any
		if err := json.Unmarshal(res.Body, &v); err != nil {
			Throw(rt, err)
		}
		return rt.ToValue(v)
	})
	return o
}
