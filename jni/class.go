package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
)

// Class is a handle to a runtime class object.
type Class struct {
	Object
}

// Local duplicates the class handle as a new local reference.
func (c *Class) Local(cap *Capability) (*Class, *Capability, *Exception) {
	raw, cap, exc := c.dup(cap, RefLocal, "NewLocalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Class{Object{newHandle(c.env, raw, RefLocal)}}, cap, nil
}

// Global promotes the class handle to a global reference.
func (c *Class) Global(cap *Capability) (*Class, *Capability, *Exception) {
	raw, cap, exc := c.dup(cap, RefGlobal, "NewGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Class{Object{newHandle(c.env, raw, RefGlobal)}}, cap, nil
}

// Weak promotes the class handle to a weak reference.
func (c *Class) Weak(cap *Capability) (*Class, *Capability, *Exception) {
	raw, cap, exc := c.dup(cap, RefWeak, "NewWeakGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &Class{Object{newHandle(c.env, raw, RefWeak)}}, cap, nil
}

// Super returns the superclass, or nil for the root class and for
// interfaces. Exception-sensitive but infallible, so it borrows.
func (c *Class) Super(cap *Capability) *Class {
	c.env.borrowCapability(cap, "GetSuperclass")
	raw := c.env.table.GetSuperclass(c.raw)
	if raw == jniruntime.NullRef {
		return nil
	}
	return &Class{Object{newHandle(c.env, raw, RefLocal)}}
}

// AssignableTo reports whether values of this class can be assigned
// to variables of class sup.
func (c *Class) AssignableTo(cap *Capability, sup *Class) bool {
	c.env.borrowCapability(cap, "IsAssignableFrom")
	return c.env.table.IsAssignableFrom(c.raw, sup.Raw())
}

// Alloc allocates a new instance of the class without running any
// constructor.
func (c *Class) Alloc(cap *Capability) (*Object, *Capability, *Exception) {
	return c.env.AllocObject(cap, c)
}
