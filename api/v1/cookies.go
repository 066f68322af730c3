// Package v1 the v1 api routes
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shiroyk/crumb/cookiejar"
)

// SetRequest the body of POST /v1/cookies. Cookie is the raw Set-Cookie
// value, the structured fields are used when it is empty.
type SetRequest struct {
	URL      string             `json:"url"`
	Cookie   string             `json:"cookie,omitempty"`
	Name     string             `json:"name,omitempty"`
	Value    string             `json:"value,omitempty"`
	Domain   string             `json:"domain,omitempty"`
	Path     string             `json:"path,omitempty"`
	MaxAge   int                `json:"maxAge,omitempty"`
	Expires  *time.Time         `json:"expires,omitempty"`
	Secure   bool               `json:"secure,omitempty"`
	HttpOnly bool               `json:"httpOnly,omitempty"`
	SameSite cookiejar.SameSite `json:"sameSite,omitempty"`
}

// Input returns the structured cookie of the request.
func (r *SetRequest) Input() cookiejar.Input {
	in := cookiejar.Input{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		MaxAge:   r.MaxAge,
		Secure:   r.Secure,
		HttpOnly: r.HttpOnly,
		SameSite: r.SameSite,
	}
	if r.Expires != nil {
		in.Expires = *r.Expires
	}
	return in
}

// HeaderResponse the body of GET /v1/cookies/header
type HeaderResponse struct {
	Cookie string `json:"cookie"`
}

type cookieHandler struct {
	jar *cookiejar.Jar
}

// RouteCookies the cookie routes
func RouteCookies(e *echo.Echo, jar *cookiejar.Jar) {
	h := &cookieHandler{jar}
	cookies := e.Group("/v1/cookies")
	cookies.GET("", h.list)
	cookies.GET("/header", h.header)
	cookies.POST("", h.set)
	cookies.DELETE("", h.remove)
}

// list returns the cookies sent to the url query, every cookie without it.
func (h *cookieHandler) list(c echo.Context) error {
	var (
		cookies []*cookiejar.Cookie
		err     error
	)
	if u := c.QueryParam("url"); u != "" {
		cookies, err = h.jar.GetCookies(u)
	} else {
		cookies, err = h.jar.All()
	}
	if err != nil {
		return err
	}
	if cookies == nil {
		cookies = []*cookiejar.Cookie{}
	}
	return c.JSON(http.StatusOK, cookies)
}

// header returns the Cookie header value of the url query.
func (h *cookieHandler) header(c echo.Context) error {
	u := c.QueryParam("url")
	if u == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	str, err := h.jar.GetCookieString(u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HeaderResponse{str})
}

func (h *cookieHandler) set(c echo.Context) error {
	req := new(SetRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	var err error
	if req.Cookie != "" {
		err = h.jar.SetCookie(req.Cookie, req.URL)
	} else {
		err = h.jar.SetCookieInput(req.Input(), req.URL)
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// remove deletes the cookies sent to the url query, every cookie without it.
func (h *cookieHandler) remove(c echo.Context) error {
	var err error
	if u := c.QueryParam("url"); u != "" {
		err = h.jar.RemoveCookies(u)
	} else {
		err = h.jar.RemoveAllCookies()
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
