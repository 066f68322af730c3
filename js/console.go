package js

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// EnableConsole sets the console global writing to logger.
func EnableConsole(rt *goja.Runtime, logger *slog.Logger) {
	c := console{logger}
	_ = rt.Set("console", map[string]func(goja.FunctionCall) goja.Value{
		"log":   c.output(slog.LevelInfo),
		"info":  c.output(slog.LevelInfo),
		"debug": c.output(slog.LevelDebug),
		"warn":  c.output(slog.LevelWarn),
		"error": c.output(slog.LevelError),
	})
}

// console implements the js console
type console struct {
	logger *slog.Logger
}

func (c console) output(level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		msg := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			msg = append(msg, arg.String())
		}
		c.logger.Log(context.Background(), level, strings.Join(msg, " "))
		return goja.Undefined()
	}
}
