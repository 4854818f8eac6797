package logger

import (
	"os"
	"strings"

	corelogger "github.com/kilianp07/ridecore/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. LOG_BACKEND=logrus selects
// the logrus backend, anything else zerolog. The output format is selected via
// APP_ENV and the minimum level via LOG_LEVEL.
func New(component string) Logger {
	if strings.EqualFold(os.Getenv("LOG_BACKEND"), "logrus") {
		return NewLogrusLogger(component)
	}
	return NewZerologLogger(component)
}
