// Package logging defines the structured-logging interface used by the
// market client. Services depend on Logger only; the CLI wires the slog
// implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "transaction confirmed", "kind", "buy", "tx", hash)
type Logger interface {
	// Debug logs low-level diagnostics (RPC round trips, cache sizes).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, e.g. a cache rebuild that
	// failed after a confirmed transaction.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
