// Package logging wires log/slog with the handlers and attribute helpers
// shared by the daemon, the CLI, and the stores. Components obtain scoped
// loggers through NewComponentLogger and attach structured fields with the
// typed helpers instead of raw key/value pairs.
package logging
