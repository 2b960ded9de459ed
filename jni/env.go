package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
	jnierrors "github.com/wippyai/jni-runtime/errors"
	"go.uber.org/zap"
)

// Env is the per-thread entry point to the native interface. It owns
// the capability/exception token state for its thread and is the
// lifetime bound for every local handle it produces.
//
// Env is NOT safe for use from more than one goroutine or OS thread.
// The attaching goroutine is locked to its OS thread until Close.
type Env struct {
	table    jniruntime.EnvTable
	vm       *VM
	tokenGen uint64
	state    envState
	detach   bool
	closed   bool
}

// VM returns the runtime handle this environment attached through.
func (env *Env) VM() *VM { return env.vm }

// Version reports the interface version of the environment. The value
// may exceed the version the runtime was created with but never falls
// below it; a lower value means the runtime broke its own contract and
// is fatal, as is an identifier outside the released set.
func (env *Env) Version(cap *Capability) jniruntime.Version {
	env.borrowCapability(cap, "GetVersion")
	v := env.table.GetVersion()
	if !v.Supported() {
		fatal("runtime reported an unrecognized interface version",
			zap.Uint32("version", uint32(v)))
	}
	if v < env.vm.version {
		fatal("runtime reported a version below the requested floor",
			zap.Stringer("reported", v), zap.Stringer("requested", env.vm.version))
	}
	return v
}

// FindClass looks up a class by its fully qualified name in internal
// form ("java/lang/String").
func (env *Env) FindClass(cap *Capability, name string) (*Class, *Capability, *Exception) {
	env.consumeCapability(cap, "FindClass")
	raw := env.table.FindClass(name)
	if raw == jniruntime.NullRef {
		return nil, nil, env.issueException()
	}
	return &Class{Object{newHandle(env, raw, RefLocal)}}, env.issueCapability(), nil
}

// DefineClass loads a class from a raw class-file image under the
// given loader.
func (env *Env) DefineClass(cap *Capability, name string, loader AnyRef, classData []byte) (*Class, *Capability, *Exception) {
	env.consumeCapability(cap, "DefineClass")
	loaderRef := jniruntime.NullRef
	if loader != nil {
		loaderRef = loader.Raw()
	}
	raw := env.table.DefineClass(name, loaderRef, classData)
	if raw == jniruntime.NullRef {
		return nil, nil, env.issueException()
	}
	return &Class{Object{newHandle(env, raw, RefLocal)}}, env.issueCapability(), nil
}

// AllocObject allocates a new instance of cls without running any
// constructor.
func (env *Env) AllocObject(cap *Capability, cls *Class) (*Object, *Capability, *Exception) {
	env.consumeCapability(cap, "AllocObject")
	raw := env.table.AllocObject(cls.Raw())
	if raw == jniruntime.NullRef {
		return nil, nil, env.issueException()
	}
	return NewObject(env, raw), env.issueCapability(), nil
}

// Throw makes t the thread's pending exception. On success the pending
// state is the outcome: the returned Exception token is the live
// token. A non-OK status means the runtime refused the throw and no
// exception is pending; the capability is gone either way and the
// caller recovers a token through ExceptionCheck.
func (env *Env) Throw(cap *Capability, t *Throwable) (*Exception, error) {
	env.consumeCapability(cap, "Throw")
	if status := env.table.Throw(t.Raw()); !status.OK() {
		env.tokenGen++ // no live token until the caller re-queries
		return nil, jnierrors.StatusFailure(jnierrors.PhaseEnv, "Throw", status)
	}
	return env.issueException(), nil
}

// ThrowNew constructs an instance of cls from msg and throws it.
func (env *Env) ThrowNew(cap *Capability, cls *Class, msg string) (*Exception, error) {
	env.consumeCapability(cap, "ThrowNew")
	if status := env.table.ThrowNew(cls.Raw(), msg); !status.OK() {
		env.tokenGen++
		return nil, jnierrors.StatusFailure(jnierrors.PhaseEnv, "ThrowNew", status)
	}
	return env.issueException(), nil
}

// ExceptionCheck queries the pending-exception state. It needs no
// token and is always legal; it invalidates all outstanding tokens and
// issues a fresh one matching the observed state. Exactly one of the
// results is non-nil.
func (env *Env) ExceptionCheck() (*Capability, *Exception) {
	if env.table.ExceptionCheck() {
		return nil, env.issueException()
	}
	return env.issueCapability(), nil
}

// ExceptionOccurred is ExceptionCheck plus a local handle to the
// pending throwable when there is one.
func (env *Env) ExceptionOccurred() (*Capability, *Throwable, *Exception) {
	raw := env.table.ExceptionOccurred()
	if raw == jniruntime.NullRef {
		return env.issueCapability(), nil, nil
	}
	t := &Throwable{Object{newHandle(env, raw, RefLocal)}}
	return nil, t, env.issueException()
}

// ExceptionDescribe dumps the pending exception and its backtrace to
// the runtime's diagnostic channel. Borrows the exception token.
func (env *Env) ExceptionDescribe(exc *Exception) {
	env.borrowException(exc, "ExceptionDescribe")
	env.table.ExceptionDescribe()
}

// ExceptionClear clears the pending exception, consuming the token
// and restoring the capability state.
func (env *Env) ExceptionClear(exc *Exception) *Capability {
	env.consumeException(exc, "ExceptionClear")
	env.table.ExceptionClear()
	return env.issueCapability()
}

// FatalError asks the runtime to abort the process with msg. It never
// returns; the panic is unreachable unless the native entry violates
// its contract.
func (env *Env) FatalError(msg string) {
	Logger().Error("fatal error raised against the runtime", zap.String("msg", msg))
	env.table.FatalError(msg)
	panic("jni: FatalError returned")
}

// PushLocalFrame opens a new local-reference frame with room for at
// least capacity references.
func (env *Env) PushLocalFrame(cap *Capability, capacity int) (*Capability, *Exception, error) {
	env.consumeCapability(cap, "PushLocalFrame")
	if status := env.table.PushLocalFrame(int32(capacity)); !status.OK() {
		return nil, env.issueException(), jnierrors.Frame("PushLocalFrame", status)
	}
	return env.issueCapability(), nil, nil
}

// PopLocalFrame closes the current frame, invalidating every local
// reference created in it, and carries exactly one handle through the
// boundary as a fresh local in the previous frame. The native entry
// never returns null here; a null result is fatal.
func (env *Env) PopLocalFrame(cap *Capability, carry AnyRef) *Object {
	env.borrowCapability(cap, "PopLocalFrame")
	raw := env.table.PopLocalFrame(carry.Raw())
	if raw == jniruntime.NullRef {
		fatal("PopLocalFrame returned null for a carried reference")
	}
	return NewObject(env, raw)
}

// PopLocalFrameDiscard closes the current frame without carrying any
// reference through.
func (env *Env) PopLocalFrameDiscard(cap *Capability) {
	env.borrowCapability(cap, "PopLocalFrame")
	env.table.PopLocalFrame(jniruntime.NullRef)
}

// EnsureLocalCapacity reserves room for at least capacity local
// references in the current frame.
func (env *Env) EnsureLocalCapacity(cap *Capability, capacity int) (*Capability, *Exception, error) {
	env.consumeCapability(cap, "EnsureLocalCapacity")
	if status := env.table.EnsureLocalCapacity(int32(capacity)); !status.OK() {
		return nil, env.issueException(), jnierrors.Capacity(capacity, status)
	}
	return env.issueCapability(), nil, nil
}

// MonitorEnter enters the monitor of obj, blocking the calling OS
// thread until it is available. Blocking is the native runtime's own
// locking; there is no cancellation. Infallible in the token sense:
// the returned status is the only failure channel.
func (env *Env) MonitorEnter(cap *Capability, obj AnyRef) jniruntime.Status {
	env.borrowCapability(cap, "MonitorEnter")
	return env.table.MonitorEnter(obj.Raw())
}

// MonitorExit leaves the monitor of obj.
func (env *Env) MonitorExit(cap *Capability, obj AnyRef) (*Capability, *Exception, error) {
	env.consumeCapability(cap, "MonitorExit")
	if status := env.table.MonitorExit(obj.Raw()); !status.OK() {
		return nil, env.issueException(), jnierrors.Monitor("MonitorExit", status)
	}
	return env.issueCapability(), nil, nil
}

// IsSameObject reports identity equality of two handles.
func (env *Env) IsSameObject(cap *Capability, a, b AnyRef) bool {
	env.borrowCapability(cap, "IsSameObject")
	return env.table.IsSameObject(a.Raw(), b.Raw())
}

// Close verifies the environment is back in the capability state,
// then detaches the thread if this environment attached it.
//
// Closing with an exception still pending is categorically a
// programmer error: the exception is described for diagnostics and
// the process aborts, because silently dropping it would tell both
// the caller and the runtime that nothing went wrong. Detachment
// failures are equally fatal. Close is idempotent.
func (env *Env) Close() {
	if env.closed {
		return
	}
	env.closed = true
	env.tokenGen++ // no token survives the environment

	if env.table.ExceptionCheck() {
		env.table.ExceptionDescribe()
		env.table.ExceptionClear()
		fatal("environment closed with a pending exception")
	}

	if env.detach {
		env.detach = false
		vmTable, status := env.table.GetJavaVM()
		if !status.OK() {
			fatal("GetJavaVM failed during detach", zap.Stringer("status", status))
		}
		if status := vmTable.DetachCurrentThread(); !status.OK() {
			fatal("DetachCurrentThread failed", zap.Stringer("status", status))
		}
	}
	env.vm.unlockThread()
}
