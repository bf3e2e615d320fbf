// Package logging provides structured logging for crucible.
//
// It wraps log/slog with a JSON handler. Engine components derive child
// loggers carrying a phase ("workspace", "simulate", "report", "history")
// and, inside the simulation loop, the commit being replayed:
//
//	logger := logging.NopLogger()
//	simLogger := logger.WithPhase("simulate").WithCommit("abc1234")
//	simLogger.Info("cherry-pick conflicted", "files", 2)
//
// Output goes to {dir}/crucible.log through a size-based [RotatingWriter]
// when a directory is configured, otherwise to stderr. Stdout is reserved
// for command results and the MCP stdio transport.
package logging
