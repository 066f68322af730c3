package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(e *echo.Echo, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	t.Parallel()
	e := Server(Options{Token: "secret"}, cookiejar.New(cookiejar.Options{}))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
}

func TestAuth(t *testing.T) {
	t.Parallel()
	e := Server(Options{Token: "secret"}, cookiejar.New(cookiejar.Options{}))

	assert.NotEqual(t, http.StatusOK, do(e, http.MethodGet, "/v1/cookies", "").Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(e, http.MethodGet, "/v1/cookies", "", echo.HeaderAuthorization, "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK,
		do(e, http.MethodGet, "/v1/cookies", "", echo.HeaderAuthorization, "Bearer secret").Code)
}

func TestCookies(t *testing.T) {
	t.Parallel()
	jar := cookiejar.New(cookiejar.Options{})
	e := Server(Options{}, jar)
	query := "?url=" + url.QueryEscape("https://example.com/api")

	rec := do(e, http.MethodPost, "/v1/cookies", `{"url": "https://example.com", "cookie": "id=1; Path=/"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/v1/cookies",
		`{"url": "https://example.com", "name": "tok", "value": "abc", "path": "/api", "secure": true, "sameSite": "lax", "maxAge": 3600}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/v1/cookies/header"+query, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cookie": "tok=abc; id=1"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/v1/cookies"+query, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cookies []cookiejar.Cookie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cookies))
	require.Len(t, cookies, 2)
	assert.Equal(t, "tok", cookies[0].Name)
	assert.Equal(t, cookiejar.SameSiteLax, cookies[0].SameSite)
	assert.True(t, cookies[0].Persistent)

	rec = do(e, http.MethodDelete, "/v1/cookies?url="+url.QueryEscape("https://example.com/"), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, "/v1/cookies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"tok"}]`, names(t, rec.Body.Bytes()))

	rec = do(e, http.MethodDelete, "/v1/cookies", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, "/v1/cookies", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func names(t *testing.T, body []byte) string {
	t.Helper()
	var cookies []map[string]any
	require.NoError(t, json.Unmarshal(body, &cookies))
	ret := make([]map[string]any, 0, len(cookies))
	for _, c := range cookies {
		ret = append(ret, map[string]any{"name": c["name"]})
	}
	b, err := json.Marshal(ret)
	require.NoError(t, err)
	return string(b)
}

func TestCookiesErrors(t *testing.T) {
	t.Parallel()
	e := Server(Options{}, cookiejar.New(cookiejar.Options{}))

	testCases := []struct {
		method, target, body string
		code                 int
	}{
		{http.MethodPost, "/v1/cookies", `{"url": "https://example.com", "cookie": "malformed"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/cookies", `{"url": "https://example.com", "cookie": "a=1; Domain=example.org"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/cookies", `{"url": "https://example.com", "value": "no name"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/cookies", `{"cookie": "a=1"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/cookies", `{`, http.StatusBadRequest},
		{http.MethodGet, "/v1/cookies/header", "", http.StatusBadRequest},
		{http.MethodGet, "/v1/cookies?url=%2Frelative", "", http.StatusBadRequest},
	}
	for _, testCase := range testCases {
		rec := do(e, testCase.method, testCase.target, testCase.body)
		assert.Equal(t, testCase.code, rec.Code, testCase.body)
		var msg map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.NotEmpty(t, msg["msg"])
	}
}
