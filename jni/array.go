package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
)

// Element is the sealed marker constraint for typed array handles.
// Markers carry no state; they only keep element-specific accessor
// layers from mixing array kinds.
type Element interface {
	arrayKind() jniruntime.ArrayKind
}

type (
	// BoolElem marks arrays of booleans.
	BoolElem struct{}
	// ByteElem marks arrays of bytes.
	ByteElem struct{}
	// CharElem marks arrays of UTF-16 code units.
	CharElem struct{}
	// ShortElem marks arrays of 16-bit integers.
	ShortElem struct{}
	// IntElem marks arrays of 32-bit integers.
	IntElem struct{}
	// LongElem marks arrays of 64-bit integers.
	LongElem struct{}
	// FloatElem marks arrays of 32-bit floats.
	FloatElem struct{}
	// DoubleElem marks arrays of 64-bit floats.
	DoubleElem struct{}
	// ObjectElem marks arrays of object references.
	ObjectElem struct{}
)

func (BoolElem) arrayKind() jniruntime.ArrayKind   { return jniruntime.ArrayBool }
func (ByteElem) arrayKind() jniruntime.ArrayKind   { return jniruntime.ArrayByte }
func (CharElem) arrayKind() jniruntime.ArrayKind   { return jniruntime.ArrayChar }
func (ShortElem) arrayKind() jniruntime.ArrayKind  { return jniruntime.ArrayShort }
func (IntElem) arrayKind() jniruntime.ArrayKind    { return jniruntime.ArrayInt }
func (LongElem) arrayKind() jniruntime.ArrayKind   { return jniruntime.ArrayLong }
func (FloatElem) arrayKind() jniruntime.ArrayKind  { return jniruntime.ArrayFloat }
func (DoubleElem) arrayKind() jniruntime.ArrayKind { return jniruntime.ArrayDouble }
func (ObjectElem) arrayKind() jniruntime.ArrayKind { return jniruntime.ArrayObject }

// Array is a typed array handle. The element marker has no runtime
// representation; the handle behaves exactly like the base family.
type Array[E Element] struct {
	Object
}

// AdoptArray wraps a raw native array value in a local typed handle.
// Like NewObject, the caller vouches for the raw value's provenance
// and element kind.
func AdoptArray[E Element](env *Env, raw jniruntime.Ref) *Array[E] {
	return &Array[E]{Object{newHandle(env, raw, RefLocal)}}
}

// Local duplicates the array handle as a new local reference.
func (a *Array[E]) Local(cap *Capability) (*Array[E], *Capability, *Exception) {
	raw, cap, exc := a.dup(cap, RefLocal, "NewLocalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Array[E]{Object{newHandle(a.env, raw, RefLocal)}}, cap, nil
}

// Global promotes the array handle to a global reference.
func (a *Array[E]) Global(cap *Capability) (*Array[E], *Capability, *Exception) {
	raw, cap, exc := a.dup(cap, RefGlobal, "NewGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Array[E]{Object{newHandle(a.env, raw, RefGlobal)}}, cap, nil
}

// Weak promotes the array handle to a weak reference.
func (a *Array[E]) Weak(cap *Capability) (*Array[E], *Capability, *Exception) {
	raw, cap, exc := a.dup(cap, RefWeak, "NewWeakGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Array[E]{Object{newHandle(a.env, raw, RefWeak)}}, cap, nil
}

// Len returns the array length.
func (a *Array[E]) Len(cap *Capability) int {
	a.env.borrowCapability(cap, "GetArrayLength")
	return int(a.env.table.GetArrayLength(a.raw))
}
