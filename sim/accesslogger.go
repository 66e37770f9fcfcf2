package sim

import "log"

// An AccessLogger is a hook that writes one line per processed access, in
// the order the trace supplied them.
type AccessLogger struct {
	*log.Logger
}

// NewAccessLogger returns a hook that writes access results to the logger.
func NewAccessLogger(logger *log.Logger) *AccessLogger {
	l := new(AccessLogger)
	l.Logger = logger
	return l
}

// Func writes the access result into the logger.
func (l *AccessLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAccess {
		return
	}

	result, ok := ctx.Item.(AccessResult)
	if !ok {
		return
	}

	l.Printf("%s", result)
}
