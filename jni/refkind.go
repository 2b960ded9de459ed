package jni

import (
	jniruntime "github.com/wippyai/jni-runtime"
	"go.uber.org/zap"
)

// RefKind is the ownership class of a native reference. The set is
// closed by the host ABI.
type RefKind uint8

const (
	// RefLocal references are valid only within the producing Env's
	// current call frame and must stay on the producing thread.
	RefLocal RefKind = iota

	// RefGlobal references are valid independent of any Env or frame
	// and may cross threads. They must be released exactly once.
	RefGlobal

	// RefWeak references are like global references but do not keep
	// the referent alive; check IsNil before every use.
	RefWeak
)

func (k RefKind) String() string {
	switch k {
	case RefLocal:
		return "local"
	case RefGlobal:
		return "global"
	case RefWeak:
		return "weak"
	}
	return "invalid"
}

func (k RefKind) valid() bool { return k <= RefWeak }

// releaseRef is the single release dispatcher: every handle in the
// family funnels through here on Release, so the kind-to-delete-entry
// pairing lives in exactly one place. The default arm is unreachable
// from the safe API because handle construction validates the kind.
func releaseRef(table jniruntime.EnvTable, kind RefKind, raw jniruntime.Ref) {
	switch kind {
	case RefLocal:
		table.DeleteLocalRef(raw)
	case RefGlobal:
		table.DeleteGlobalRef(raw)
	case RefWeak:
		table.DeleteWeakGlobalRef(raw)
	default:
		fatal("release of unknown reference kind", zap.Uint8("kind", uint8(kind)))
	}
}

// newRawRef dispatches reference duplication by target kind. Paired
// with releaseRef so the two kind switches sit side by side.
func newRawRef(table jniruntime.EnvTable, kind RefKind, raw jniruntime.Ref) jniruntime.Ref {
	switch kind {
	case RefLocal:
		return table.NewLocalRef(raw)
	case RefGlobal:
		return table.NewGlobalRef(raw)
	case RefWeak:
		return table.NewWeakGlobalRef(raw)
	default:
		fatal("duplication to unknown reference kind", zap.Uint8("kind", uint8(kind)))
		return jniruntime.NullRef
	}
}
