// Package logging defines the structured-logging interface the server codes
// against, decoupled from the concrete backend (slog here).
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are
// alternating key-value pairs:
//
//	log.Info(ctx, "starting http server", "addr", addr)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given pairs.
	With(args ...any) Logger
}
