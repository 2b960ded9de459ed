// Package jni is the safe API over the native call-table boundary
// declared in the root package.
//
// # Capability and Exception tokens
//
// Every native operation is classified by its relationship to the
// pending-exception state of the thread's environment:
//
//   - Infallible but exception-sensitive operations borrow a
//     *Capability: they take it as an argument and leave it usable.
//   - Fallible operations consume the *Capability. On success they
//     return a fresh one alongside the result; on failure they return
//     an *Exception token instead, and the environment is left with a
//     pending exception.
//   - Exception-state queries need no Capability and are always legal:
//     ExceptionCheck, ExceptionOccurred, ExceptionDescribe,
//     ExceptionClear.
//
// A consumed token is dead. Go cannot enforce the move statically, so
// each Env tracks a token generation: any use of a spent or stale
// token, or of a token belonging to another Env, is a programmer error
// and panics after logging diagnostics. At any point exactly one token
// is live per Env.
//
// # Reference kinds
//
// Handles wrap a raw native reference together with its ownership
// class (RefKind): local, global, or weak. Release dispatches to the
// matching native delete entry through a single exhaustive dispatcher;
// the wrong pairing is unreachable from this API. Local handles die
// with their frame or Env; global and weak handles may outlive both
// and may cross threads. A weak handle's referent can be collected at
// any time, so IsNil must be checked before every use.
//
// # Thread confinement
//
// Env and every local handle it produced belong to the thread that
// attached. VM.GetEnv locks the calling goroutine to its OS thread for
// the Env's lifetime; sharing an Env or a local handle with another
// goroutine is undefined behavior at the native layer and is not
// detectable here. This is a hard caller contract.
package jni
