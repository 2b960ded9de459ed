package jniruntime

// Ref is an opaque native reference value as returned by the call
// table. It carries no ownership information by itself; the safe layer
// pairs it with a reference kind.
type Ref uintptr

// NullRef is the native interface's null sentinel.
const NullRef Ref = 0

// Status is a native status code. Zero is success; every other value
// is a distinct failure. The set is closed by the host ABI.
type Status int32

const (
	StatusOK       Status = 0
	StatusErr      Status = -1 // unknown error
	StatusDetached Status = -2 // thread detached from the runtime
	StatusVersion  Status = -3 // version error
	StatusNoMemory Status = -4
	StatusExist    Status = -5 // runtime already created
	StatusInvalid  Status = -6 // invalid arguments
)

// OK reports whether s is the success status.
func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusErr:
		return "unknown error"
	case StatusDetached:
		return "thread detached"
	case StatusVersion:
		return "version error"
	case StatusNoMemory:
		return "out of memory"
	case StatusExist:
		return "runtime already exists"
	case StatusInvalid:
		return "invalid arguments"
	}
	return "unrecognized status"
}

// Version identifies a released revision of the native interface.
// The set is closed; an unrecognized value reported by the runtime is
// a fatal condition with no forward-compatible fallback.
type Version uint32

const (
	Version11 Version = 0x00010001
	Version12 Version = 0x00010002
	Version14 Version = 0x00010004
	Version16 Version = 0x00010006
	Version18 Version = 0x00010008
)

// Supported reports whether v is one of the released identifiers.
func (v Version) Supported() bool {
	switch v {
	case Version11, Version12, Version14, Version16, Version18:
		return true
	}
	return false
}

func (v Version) String() string {
	switch v {
	case Version11:
		return "1.1"
	case Version12:
		return "1.2"
	case Version14:
		return "1.4"
	case Version16:
		return "1.6"
	case Version18:
		return "1.8"
	}
	return "unknown"
}

// ArrayKind discriminates typed array element kinds.
type ArrayKind uint8

const (
	ArrayBool ArrayKind = iota
	ArrayByte
	ArrayChar
	ArrayShort
	ArrayInt
	ArrayLong
	ArrayFloat
	ArrayDouble
	ArrayObject
)

// VMOption is a single startup option: a text flag plus opaque extra
// data for the runtime. The concrete binding passes the text across
// the ABI as a NUL-terminated buffer in the runtime's native encoding.
type VMOption struct {
	Option string
	Extra  uintptr
}

// InitArgs configures runtime creation.
type InitArgs struct {
	// Version is the interface revision the caller requires.
	Version Version

	// Options are passed to the runtime in order.
	Options []VMOption

	// IgnoreUnrecognized makes the runtime skip unknown options
	// instead of failing startup.
	IgnoreUnrecognized bool
}

// AttachArgs configures thread attachment.
type AttachArgs struct {
	Version Version
	Name    string
	Group   Ref
}

// Launcher creates a native runtime instance. The returned EnvTable is
// bound to the creating thread.
type Launcher interface {
	CreateVM(args *InitArgs) (VMTable, EnvTable, Status)
}

// VMTable is the process-wide slice of the native call table. It is
// safe to call from any thread.
type VMTable interface {
	DestroyJavaVM() Status
	AttachCurrentThread(args *AttachArgs) (EnvTable, Status)
	AttachCurrentThreadAsDaemon(args *AttachArgs) (EnvTable, Status)
	DetachCurrentThread() Status
	GetEnv(version Version) (EnvTable, Status)
}

// EnvTable is the per-thread slice of the native call table. Every
// entry is thread-affine: it must only be called from the thread the
// table was obtained on. The safe layer in package jni is the only
// intended caller; auditing that package against this interface is the
// whole safety argument.
//
// Failure shapes: entries returning a Ref signal failure with NullRef
// plus a pending exception as a side effect. Entries returning a
// Status signal failure with a non-OK code, which may or may not come
// with a pending exception depending on the entry. Callers must not
// assume every NullRef implies a pending exception.
type EnvTable interface {
	GetVersion() Version

	// Class operations.
	DefineClass(name string, loader Ref, classData []byte) Ref
	FindClass(name string) Ref
	GetSuperclass(cls Ref) Ref
	IsAssignableFrom(sub, sup Ref) bool

	// Exception management.
	Throw(obj Ref) Status
	ThrowNew(cls Ref, msg string) Status
	ExceptionOccurred() Ref
	ExceptionDescribe()
	ExceptionCheck() bool
	ExceptionClear()
	FatalError(msg string)

	// Reference management. The Delete entries must receive a
	// reference of the matching kind; mismatches are undefined
	// behavior at the native layer.
	PushLocalFrame(capacity int32) Status
	PopLocalFrame(result Ref) Ref
	EnsureLocalCapacity(capacity int32) Status
	NewLocalRef(ref Ref) Ref
	DeleteLocalRef(ref Ref)
	NewGlobalRef(ref Ref) Ref
	DeleteGlobalRef(ref Ref)
	NewWeakGlobalRef(ref Ref) Ref
	DeleteWeakGlobalRef(ref Ref)

	// Object operations.
	AllocObject(cls Ref) Ref
	GetObjectClass(obj Ref) Ref
	IsInstanceOf(obj, cls Ref) bool
	IsSameObject(a, b Ref) bool

	// Monitors. MonitorEnter may block the calling OS thread.
	MonitorEnter(obj Ref) Status
	MonitorExit(obj Ref) Status

	GetJavaVM() (VMTable, Status)

	// String operations. Text crosses this boundary as modified
	// UTF-8 bytes (see package mutf8).
	NewStringUTF(utf []byte) Ref
	GetStringLength(s Ref) int32
	GetStringUTFLength(s Ref) int32
	GetStringUTFChars(s Ref) (chars []byte, isCopy bool)
	ReleaseStringUTFChars(s Ref, chars []byte)
	// GetStringUTFRegion writes into buf and reports the number of
	// bytes written; ok is false when the range is out of bounds, in
	// which case an index exception is pending.
	GetStringUTFRegion(s Ref, start, length int32, buf []byte) (n int32, ok bool)

	// Array operations.
	GetArrayLength(arr Ref) int32
}
