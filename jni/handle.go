package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
	"go.uber.org/zap"
)

// AnyRef is implemented by every handle in the family. It exposes the
// identity of a handle without allowing wrapper types to be confused
// for one another: there are no implicit conversions between them,
// only Object accepts any native value.
type AnyRef interface {
	// Env returns the environment that produced the handle.
	Env() *Env

	// Raw returns the native reference value.
	Raw() jniruntime.Ref

	// Kind returns the ownership class.
	Kind() RefKind

	// Release frees the native reference via the release entry
	// matching its kind. Release is idempotent and always legal,
	// even while an exception is pending.
	Release()
}

// handle is the common (env, raw value, kind) triple.
type handle struct {
	env      *Env
	raw      jniruntime.Ref
	kind     RefKind
	released bool
}

func (h *handle) Env() *Env           { return h.env }
func (h *handle) Raw() jniruntime.Ref { return h.raw }
func (h *handle) Kind() RefKind       { return h.kind }

func (h *handle) Release() {
	if h.released {
		return
	}
	h.released = true
	if h.raw == jniruntime.NullRef {
		return
	}
	releaseRef(h.env.table, h.kind, h.raw)
}

// IsSame reports identity equality with other via the native
// is-same-object query. This is semantic identity, not structural
// comparison; two distinct instances of the same class are not same.
func (h *handle) IsSame(cap *Capability, other AnyRef) bool {
	h.env.borrowCapability(cap, "IsSameObject")
	return h.env.table.IsSameObject(h.raw, other.Raw())
}

// IsNil reports whether the handle refers to the null sentinel. For
// weak handles this re-validates the referent and must be checked
// before every dereference.
func (h *handle) IsNil(cap *Capability) bool {
	h.env.borrowCapability(cap, "IsSameObject")
	return h.env.table.IsSameObject(h.raw, jniruntime.NullRef)
}

func newHandle(env *Env, raw jniruntime.Ref, kind RefKind) handle {
	if !kind.valid() {
		fatal("handle constructed with unknown reference kind", zap.Uint8("kind", uint8(kind)))
	}
	return handle{env: env, raw: raw, kind: kind}
}

// dup duplicates the underlying reference as kind. Fallible: the
// native duplication entry can raise (typically on memory exhaustion),
// so it consumes the capability. The source handle stays valid.
func (h *handle) dup(cap *Capability, kind RefKind, op string) (jniruntime.Ref, *Capability, *Exception) {
	h.env.consumeCapability(cap, op)
	raw := newRawRef(h.env.table, kind, h.raw)
	if raw == jniruntime.NullRef {
		return jniruntime.NullRef, nil, h.env.issueException()
	}
	return raw, h.env.issueCapability(), nil
}

// Object is the generic object handle: the only wrapper that accepts
// any native value.
type Object struct {
	handle
}

// NewObject wraps a raw native value in a local handle. The caller
// vouches that raw came from the same environment; this is the
// adoption point for references handed in by the runtime (callback
// arguments and the like).
func NewObject(env *Env, raw jniruntime.Ref) *Object {
	return &Object{newHandle(env, raw, RefLocal)}
}

// Local duplicates the handle as a new local reference.
func (o *Object) Local(cap *Capability) (*Object, *Capability, *Exception) {
	raw, cap, exc := o.dup(cap, RefLocal, "NewLocalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Object{newHandle(o.env, raw, RefLocal)}, cap, nil
}

// Global promotes the handle to a global reference. The source handle
// is unaffected; the promotion holds its own native reference.
func (o *Object) Global(cap *Capability) (*Object, *Capability, *Exception) {
	raw, cap, exc := o.dup(cap, RefGlobal, "NewGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Object{newHandle(o.env, raw, RefGlobal)}, cap, nil
}

// Weak promotes the handle to a weak reference. The referent may be
// collected afterwards; check IsNil before every use.
func (o *Object) Weak(cap *Capability) (*Object, *Capability, *Exception) {
	raw, cap, exc := o.dup(cap, RefWeak, "NewWeakGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Object{newHandle(o.env, raw, RefWeak)}, cap, nil
}

// ObjectClass returns the class of the referent. The native entry
// never returns null for a valid reference; a null result is a native
// contract violation and fatal.
func (o *Object) ObjectClass(cap *Capability) *Class {
	o.env.borrowCapability(cap, "GetObjectClass")
	raw := o.env.table.GetObjectClass(o.raw)
	if raw == jniruntime.NullRef {
		fatal("GetObjectClass returned null for a live reference")
	}
	return &Class{Object{newHandle(o.env, raw, RefLocal)}}
}

// InstanceOf reports whether the referent is an instance of cls.
func (o *Object) InstanceOf(cap *Capability, cls *Class) bool {
	o.env.borrowCapability(cap, "IsInstanceOf")
	return o.env.table.IsInstanceOf(o.raw, cls.Raw())
}
