package jni

// Throwable is a handle to a throwable object. It adds no operations
// of its own; it exists so Throw and ExceptionOccurred are statically
// restricted to references known to be throwable.
type Throwable struct {
	Object
}

// Local duplicates the throwable handle as a new local reference.
func (t *Throwable) Local(cap *Capability) (*Throwable, *Capability, *Exception) {
	raw, cap, exc := t.dup(cap, RefLocal, "NewLocalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Throwable{Object{newHandle(t.env, raw, RefLocal)}}, cap, nil
}

// Global promotes the throwable handle to a global reference.
func (t *Throwable) Global(cap *Capability) (*Throwable, *Capability, *Exception) {
	raw, cap, exc := t.dup(cap, RefGlobal, "NewGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Throwable{Object{newHandle(t.env, raw, RefGlobal)}}, cap, nil
}

// Weak promotes the throwable handle to a weak reference.
func (t *Throwable) Weak(cap *Capability) (*Throwable, *Capability, *Exception) {
	raw, cap, exc := t.dup(cap, RefWeak, "NewWeakGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Throwable{Object{newHandle(t.env, raw, RefWeak)}}, cap, nil
}
