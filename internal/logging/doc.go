// Package logging builds slog loggers with console and JSON handlers and
// carries standardized task/stage fields through contexts.
package logging
