// Package api the cookie jar http api
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	v1 "github.com/shiroyk/crumb/api/v1"
	"github.com/shiroyk/crumb/cookiejar"
)

const (
	// DefaultTimeout the default timeout
	DefaultTimeout = time.Minute
	// DefaultAddress the api default address
	DefaultAddress = "localhost:8080"
)

// Options the api server configuration
type Options struct {
	Logger  *slog.Logger  `yaml:"-" env:"-"`
	Token   string        `yaml:"token" env:"TOKEN"`
	Address string        `yaml:"address" env:"ADDRESS"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Server the api service of the jar
func Server(opt Options, jar *cookiejar.Jar) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler(opt)
	e.HideBanner = true
	e.HidePort = true
	e.Use(loggerMiddleware(opt), authMiddleware(opt))
	e.Any("/ping", ping)
	v1.RouteCookies(e, jar)
	return e
}

// errorHandler renders the error as {"msg": ...}, a rejected cookie or
// url is a bad request.
func errorHandler(opt Options) echo.HTTPErrorHandler {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := err.Error()

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
		case isCookieError(err):
			code = http.StatusBadRequest
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", "uri", c.Request().RequestURI, "error", err)
		}

		if err = c.JSON(code, map[string]string{"msg": msg}); err != nil {
			log.Error("error response failed", "error", err)
		}
	}
}

func isCookieError(err error) bool {
	var pe *cookiejar.ParseError
	return errors.As(err, &pe) ||
		errors.Is(err, cookiejar.ErrInvalidURL) ||
		errors.Is(err, cookiejar.ErrMalformedCookie) ||
		errors.Is(err, cookiejar.ErrInvalidName) ||
		errors.Is(err, cookiejar.ErrInvalidValue) ||
		errors.Is(err, cookiejar.ErrDomainMismatch)
}

func ping(ctx echo.Context) error {
	return ctx.NoContent(http.StatusOK)
}
