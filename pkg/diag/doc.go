// Package diag provides structured diagnostics for the client.
//
// The session manager and access service emit one Event per lifecycle
// transition, retry, failure and measured operation. Applications
// choose where events land by providing a Recorder:
//
//	// For development: console via slog
//	cfg.Recorder = diag.NewSlogRecorder(slog.Default())
//
//	// For capture: binary file
//	cfg.Recorder, _ = diag.NewFileRecorder("/var/log/opclink/client.dlog")
//
//	// Both
//	cfg.Recorder = diag.NewMultiRecorder(
//	    diag.NewSlogRecorder(slog.Default()),
//	    fileRecorder,
//	)
//
// # Event Levels
//
// Lifecycle events (connected, disconnected) are info. Retries and
// soft-validation mismatches are warnings. Exhausted retry budgets are
// errors. Per-operation latency measurements are debug.
//
// # File Format
//
// Event files use CBOR encoding with integer keys. The opclink-log
// tool views, filters and summarizes them; Reader provides programmatic
// streaming access.
package diag
