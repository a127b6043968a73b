package go_func_utils

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// SafeGo runs fn in a goroutine and logs panics before re-raising them. The
// TUI owns the terminal, so a bare panic would otherwise vanish with the
// screen; the log file keeps the stack.
func SafeGo(logger *logrus.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
