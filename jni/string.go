package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
	jnierrors "github.com/wippyai/jni-runtime/errors"
	"github.com/wippyai/jni-runtime/mutf8"
)

// String is a handle to a runtime string object.
type String struct {
	Object
}

// NewString constructs a runtime string from text.
func (env *Env) NewString(cap *Capability, text string) (*String, *Capability, *Exception) {
	env.consumeCapability(cap, "NewStringUTF")
	raw := env.table.NewStringUTF(mutf8.Encode(text))
	if raw == jniruntime.NullRef {
		return nil, nil, env.issueException()
	}
	return &String{Object{newHandle(env, raw, RefLocal)}}, env.issueCapability(), nil
}

// Local duplicates the string handle as a new local reference.
func (s *String) Local(cap *Capability) (*String, *Capability, *Exception) {
	raw, cap, exc := s.dup(cap, RefLocal, "NewLocalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &String{Object{newHandle(s.env, raw, RefLocal)}}, cap, nil
}

// Global promotes the string handle to a global reference.
func (s *String) Global(cap *Capability) (*String, *Capability, *Exception) {
	raw, cap, exc := s.dup(cap, RefGlobal, "NewGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &String{Object{newHandle(s.env, raw, RefGlobal)}}, cap, nil
}

// Weak promotes the string handle to a weak reference.
func (s *String) Weak(cap *Capability) (*String, *Capability, *Exception) {
	raw, cap, exc := s.dup(cap, RefWeak, "NewWeakGlobalRef")
	if exc != nil {
		return nil, nil, exc
	}
	return &String{Object{newHandle(s.env, raw, RefWeak)}}, cap, nil
}

// Length returns the string length in UTF-16 code units.
func (s *String) Length(cap *Capability) int {
	s.env.borrowCapability(cap, "GetStringLength")
	return int(s.env.table.GetStringLength(s.raw))
}

// UTFLength returns the string length in modified UTF-8 bytes. The
// two lengths differ for any content outside plain ASCII.
func (s *String) UTFLength(cap *Capability) int {
	s.env.borrowCapability(cap, "GetStringUTFLength")
	return int(s.env.table.GetStringUTFLength(s.raw))
}

// WithChars borrows the string's characters from the runtime, decodes
// them and passes the text to fn. The native buffer is released on
// every exit path, including a panic in fn or a decode failure.
func (s *String) WithChars(cap *Capability, fn func(text string) error) error {
	s.env.borrowCapability(cap, "GetStringUTFChars")
	chars, _ := s.env.table.GetStringUTFChars(s.raw)
	if chars == nil {
		return jnierrors.StatusFailure(jnierrors.PhaseString, "GetStringUTFChars", jniruntime.StatusNoMemory)
	}
	defer s.env.table.ReleaseStringUTFChars(s.raw, chars)

	text, err := mutf8.Decode(chars)
	if err != nil {
		return jnierrors.New(jnierrors.PhaseString, jnierrors.KindInvalidInput).
			Op("GetStringUTFChars").
			Cause(err).
			Detail("decode native string").
			Build()
	}
	return fn(text)
}

// Text decodes the whole string.
func (s *String) Text(cap *Capability) (string, error) {
	var out string
	err := s.WithChars(cap, func(text string) error {
		out = text
		return nil
	})
	return out, err
}

// Region copies the code-unit range [start, start+length) into a
// fresh modified UTF-8 buffer with an explicit NUL terminator. An out
// of range request raises an index exception.
func (s *String) Region(cap *Capability, start, length int) ([]byte, *Capability, *Exception) {
	s.env.consumeCapability(cap, "GetStringUTFRegion")
	var buf []byte
	if length > 0 {
		// Each UTF-16 code unit encodes to at most three bytes.
		buf = make([]byte, 3*length)
	}
	// A negative start or length goes through to the native entry,
	// which raises the index exception.
	n, ok := s.env.table.GetStringUTFRegion(s.raw, int32(start), int32(length), buf)
	if !ok {
		return nil, nil, s.env.issueException()
	}
	out := append(buf[:n:n], 0)
	return out, s.env.issueCapability(), nil
}
