package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

// Run executes fn and logs any panic instead of crashing the process.
func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stack(20)),
			)
		}
	}()

	fn()
}

// Go starts fn in a new goroutine guarded by Run.
func Go(component string, fn func()) {
	go RunWithLog(fn, component)
}

func stack(maxLines int) string {
	lines := strings.Split(string(debug.Stack()), "\n")
	if len(lines) > maxLines*2 {
		lines = append(lines[:maxLines*2], "... (truncated)")
	}
	return strings.Join(lines, "\n")
}
