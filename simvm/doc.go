// Package simvm is an in-process simulated runtime implementing the
// native call-table interfaces of the root package. It exists so the
// safe layer in package jni can be exercised end to end without a real
// native runtime: it models the object heap, bootstrap classes, local
// reference frames, global and weak reference tables, per-thread
// pending exceptions, and re-entrant monitors, and it keeps the
// bookkeeping (reference kind per reference, outstanding string
// buffers) needed to detect misuse that a real runtime would only
// punish with undefined behavior.
//
// Thread identity is approximated by goroutine identity. That is close
// enough because the safe layer locks every attached goroutine to its
// OS thread.
package simvm
