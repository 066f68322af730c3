package js

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
)

// VM the js runtime.
// An instance of VM can only be used by a single goroutine at a time.
type VM interface {
	// RunString the js string
	RunString(context.Context, string) (goja.Value, error)
	// Runtime the js runtime
	Runtime() *goja.Runtime
}

// Option configures the runtime of a new VM.
type Option func(*goja.Runtime)

// WithInitial runs fn on the runtime when the VM is created.
func WithInitial(fn func(*goja.Runtime)) Option {
	return fn
}

// WithLogger sets the console output logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *goja.Runtime) {
		EnableConsole(rt, logger)
	}
}

type vmImpl struct {
	runtime *goja.Runtime
}

// NewVM creates a new JavaScript VM with console enabled.
func NewVM(opts ...Option) VM {
	runtime := goja.New()
	EnableConsole(runtime, slog.Default())
	for _, opt := range opts {
		opt(runtime)
	}
	return &vmImpl{runtime}
}

// RunString the js string, interrupted when ctx is done.
func (vm *vmImpl) RunString(ctx context.Context, code string) (ret goja.Value, err error) {
	// resets the interrupt flag.
	vm.runtime.ClearInterrupt()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.runtime.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("vm run error %s", r))
			err = fmt.Errorf("vm run error: %v", r)
		}
	}()

	return vm.runtime.RunString(code)
}

// Runtime the js runtime
func (vm *vmImpl) Runtime() *goja.Runtime {
	return vm.runtime
}
