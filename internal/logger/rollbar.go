package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

// RollbarHook forwards error-level and worse events to Rollbar.
type RollbarHook struct{}

// WithRollbar configures the Rollbar notifier and attaches the hook. An empty
// token returns the logger unchanged.
func WithRollbar(log zerolog.Logger, token, env, host string) zerolog.Logger {
	if token == "" {
		return log
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetServerHost(host)
	return log.Hook(RollbarHook{})
}

// Run implements zerolog.Hook.
func (RollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		rollbar.Error(msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		rollbar.Critical(msg)
		rollbar.Wait()
	}
}

// Flush blocks until queued Rollbar items are sent.
func Flush() {
	rollbar.Wait()
}
