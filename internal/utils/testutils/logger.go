package testutils

import (
	"bytes"
	"log/slog"
	"sync"
)

// Logger is a debug level text logger that records its output in memory.
// Timestamps are omitted so tests can compare whole lines.
type Logger struct {
	*slog.Logger

	output *logBuffer
}

func NewTestLogger() *Logger {
	output := &logBuffer{}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && attr.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return attr
		},
	})

	return &Logger{Logger: slog.New(handler), output: output}
}

// GetLogs returns everything logged so far.
func (l *Logger) GetLogs() string {
	return l.output.String()
}

// logBuffer serializes writes of concurrent device flows and HTTP handlers.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p) //nolint:wrapcheck
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
