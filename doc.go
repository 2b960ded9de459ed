// Package jniruntime provides a type-safe Go layer over the native
// call-table interface of a JVM-style managed runtime.
//
// The native interface is a C-style function table where most entries
// are illegal to call while an exception is pending, and where every
// returned reference belongs to one of three ownership classes with
// distinct release rules. Violating either rule is undefined behavior
// at the native layer, not a catchable error. This library turns both
// rules into a checkable contract.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jniruntime/          Root package with the raw call-table interfaces
//	├── jni/             Safe API: VM, Env, capability tokens, handle family
//	├── errors/          Structured error types for native status failures
//	├── mutf8/           Modified UTF-8 codec for text crossing the boundary
//	├── vmconfig/        Startup options from environment variables
//	├── simvm/           In-memory native interface for tests and tooling
//	└── cmd/jnish/       Interactive shell against the simulated runtime
//
// # Quick Start
//
// Create a runtime and look up a class:
//
//	vm, env, cap, err := jni.NewVM(simvm.New(), &jniruntime.InitArgs{
//	    Version: jniruntime.Version18,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vm.Destroy()
//	defer env.Close()
//
//	cls, cap, exc := env.FindClass(cap, "java/lang/String")
//	if exc != nil {
//	    cap = env.ExceptionClear(exc)
//	}
//
// # The capability protocol
//
// Every operation that touches the native interface is classified by
// its relationship to the pending-exception state. Operations that can
// raise an exception consume a *jni.Capability and return a fresh one
// only on success; on failure they return a *jni.Exception token that
// must be cleared (or inspected) before any further gated call.
// Reusing a consumed token is a programmer error and panics.
//
// # Thread Safety
//
// VM is safe for concurrent use after construction. Env and every
// local handle it produces are confined to the thread that attached
// them; sharing either across goroutines is undefined behavior at the
// native layer and is not detected here. Global and weak handles may
// cross threads freely.
package jniruntime
