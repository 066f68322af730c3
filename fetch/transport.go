package fetch

import (
	"net/http"
)

// RequestProcessor called before each request hop is sent.
type RequestProcessor interface {
	ProcessRequest(req *http.Request)
}

// ResponseProcessor called after each response hop is received.
type ResponseProcessor interface {
	ProcessResponse(res *http.Response)
}

// RequestResponseProcessor interface is for processors that needs to process both requests and responses
type RequestResponseProcessor interface {
	RequestProcessor
	ResponseProcessor
}

// Transport is a http.RoundTripper that runs the processors around every
// round trip, so redirects and retries each see them.
type Transport struct {
	// Base the underlying http.RoundTripper, http.DefaultTransport if nil.
	Base http.RoundTripper

	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// Use adds the processors, each must implement RequestProcessor,
// ResponseProcessor or both.
func (t *Transport) Use(processors ...any) {
	for _, p := range processors {
		if rp, ok := p.(RequestProcessor); ok {
			t.requestProcessors = append(t.requestProcessors, rp)
		}
		if rp, ok := p.(ResponseProcessor); ok {
			t.responseProcessors = append(t.responseProcessors, rp)
		}
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if len(t.requestProcessors) > 0 {
		// RoundTrip must not modify the caller's request
		req = req.Clone(req.Context())
		for _, p := range t.requestProcessors {
			p.ProcessRequest(req)
		}
	}

	res, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	for _, p := range t.responseProcessors {
		p.ProcessResponse(res)
	}
	return res, nil
}
