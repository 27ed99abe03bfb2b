// Package log provides the logging abstraction used by the ktlx reader.
//
// The reader never writes to a global logger: it accepts a Logger and emits
// structured warnings through it, mainly for auxiliary files (notes, sync,
// video index) that are missing or unreadable while the sample path still
// succeeds.
//
// # Usage
//
// Wire the zerolog adapter for console output:
//
//	logger := log.NewZerologAdapter()
//	rec, err := ktlx.OpenRecording(path, ktlx.WithLogger(logger))
//
// Or keep the default no-op logger when warnings are not wanted:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with existing logging
// infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
