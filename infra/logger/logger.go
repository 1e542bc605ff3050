package logger

import corelogger "github.com/kilianp07/casesched/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards all output.
type NopLogger = corelogger.Nop

// New returns a Logger tagged with the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
