package logger

// NoOpLogger discards everything. Used by tests and optional components.
type NoOpLogger struct{}

// NewNop creates a new no-op logger instance.
func NewNop() Logger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(string, ...Field) {}
func (l *NoOpLogger) Info(string, ...Field)  {}
func (l *NoOpLogger) Warn(string, ...Field)  {}
func (l *NoOpLogger) Error(string, ...Field) {}

func (l *NoOpLogger) With(...Field) Logger {
	return l
}

func (l *NoOpLogger) Sync() error {
	return nil
}
