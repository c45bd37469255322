package logger

// nopLogger discards everything. Useful as a default for components that
// accept an optional Logger (feed.Validate, risk.Manager, engine.Engine)
// and in tests that don't care about log output.
type nopLogger struct{}

func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}

// Nop returns a Logger that discards all output.
func Nop() Logger { return nopLogger{} }
