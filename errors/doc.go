// Package errors provides structured error types for the jni-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category), and carry the native status code when one exists. They represent
// the recoverable failure class of the native interface: calls that fail with
// a distinct status code rather than a pending exception. Pending exceptions
// are represented by jni.Exception tokens, never by this package.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAttach, errors.KindStatusFailure).
//		Op("AttachCurrentThread").
//		Status(status).
//		Detail("daemon attach").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AttachFailed(status)
//	err := errors.StatusFailure(errors.PhaseMonitor, "MonitorExit", status)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
