package common

import (
	"runtime"

	"github.com/devlights/gomy/output"
	"go.uber.org/zap"
)

// Fatal reports a fatal invariant violation: a bounds check or pin-protocol
// rule broken by a caller. It dumps every goroutine's stack to stdout for
// postmortem diagnosis, then logs at zap.Fatal, which itself terminates the
// process after flushing.
func Fatal(logger *zap.Logger, msg string, fields ...zap.Field) {
	dumpGoroutineStacks()
	logger.Fatal(msg, fields...)
}

func dumpGoroutineStacks() {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			output.Stdoutl("=== goroutine dump ===", string(buf[:n]))
			return
		}
		buf = make([]byte, 2*len(buf))
	}
}
