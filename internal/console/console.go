package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Console evaluates JavaScript snippets in a throwaway VM per call. Each call
// gets a fresh runtime, so snippets cannot leak state into each other, and the
// VM is interrupted as soon as the context is done.
type Console struct{}

func New() *Console {
	return &Console{}
}

// Eval runs src and returns the combined console output plus the final value.
// A script stuck in a loop dies with the caller's context.
func (c *Console) Eval(ctx context.Context, src string) (string, error) {
	vm := goja.New()

	var lines []string
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		lines = append(lines, strings.Join(parts, " "))
		return goja.Undefined()
	}
	consoleObj := vm.NewObject()
	if err := consoleObj.Set("log", logFn); err != nil {
		return "", fmt.Errorf("failed to set up console object: %w", err)
	}
	if err := vm.Set("console", consoleObj); err != nil {
		return "", fmt.Errorf("failed to set up console object: %w", err)
	}

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution cancelled")
		case <-watchDone:
		}
	}()

	value, err := vm.RunString(src)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return "", fmt.Errorf("script interrupted: %w", ctx.Err())
		}
		return "", fmt.Errorf("script error: %w", err)
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if value != nil && !goja.IsUndefined(value) {
		b.WriteString("=> ")
		b.WriteString(value.String())
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
