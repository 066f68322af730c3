package fetch

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/coder/websocket"
)

// DialWebSocket opens a websocket connection to the ws or wss url. The
// handshake goes through the Transport of the options, so the jar cookies
// are sent and the handshake Set-Cookie values are stored.
func DialWebSocket(ctx context.Context, rawURL string, headers map[string]string, opt Options) (*websocket.Conn, *http.Response, error) {
	header := make(http.Header, len(headers))
	for k, v := range headers {
		header.Set(k, v)
	}
	if opt.Transport == nil {
		proxy := opt.ProxyFunc
		if proxy == nil {
			proxy = http.ProxyFromEnvironment
		}
		// the upgrade needs HTTP/1.1, a non-nil empty TLSNextProto disables HTTP/2
		opt.Transport = &http.Transport{
			Proxy:        proxy,
			TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
		}
	}
	// the handshake is bounded by ctx, websocket.Dial rejects a client timeout
	client := &http.Client{Transport: newTransport(opt)}
	return websocket.Dial(ctx, rawURL, &websocket.DialOptions{
		HTTPClient: client,
		HTTPHeader: header,
	})
}
