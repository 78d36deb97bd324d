// Package logging provides structured logging utilities for the scheduleai
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// User identifiers are opaque and may be email addresses; they are hashed
// before logging so log entries can be correlated without exposing PII.
// Tokens are never logged directly.
package logging
