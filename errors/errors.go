package errors

import (
	"fmt"
	"strings"

	jniruntime "github.com/wippyai/jni-runtime"
)

// Phase indicates where in the runtime lifecycle the error occurred
type Phase string

const (
	PhaseStartup  Phase = "startup"  // runtime creation
	PhaseAttach   Phase = "attach"   // thread attachment
	PhaseDetach   Phase = "detach"   // thread detachment
	PhaseEnv      Phase = "env"      // environment operations
	PhaseRefs     Phase = "refs"     // reference management
	PhaseFrame    Phase = "frame"    // local reference frames
	PhaseMonitor  Phase = "monitor"  // monitor enter/exit
	PhaseString   Phase = "string"   // string construction/decoding
	PhaseTeardown Phase = "teardown" // runtime destruction
)

// Kind categorizes the error
type Kind string

const (
	KindStatusFailure      Kind = "status_failure"
	KindOptionRejected     Kind = "option_rejected"
	KindVersionUnsupported Kind = "version_unsupported"
	KindNotAttached        Kind = "not_attached"
	KindAlreadyDestroyed   Kind = "already_destroyed"
	KindCapacity           Kind = "capacity"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error type used throughout the library for
// recoverable native-call failures. It represents the status-code
// failure shape of the native interface; pending exceptions are
// represented by jni.Exception tokens instead.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
	Status jniruntime.Status
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Status != jniruntime.StatusOK {
		b.WriteString(": status ")
		b.WriteString(fmt.Sprintf("%d (%s)", int32(e.Status), e.Status))
	}

	if e.Detail != "" {
		if e.Status != jniruntime.StatusOK {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the native call-table entry name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Status sets the native status code
func (b *Builder) Status(s jniruntime.Status) *Builder {
	b.err.Status = s
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// StatusFailure creates an error for a native call that returned a
// non-OK status code.
func StatusFailure(phase Phase, op string, status jniruntime.Status) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStatusFailure,
		Op:     op,
		Status: status,
	}
}

// Startup creates a runtime-creation error
func Startup(status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseStartup,
		Kind:   KindStatusFailure,
		Op:     "CreateVM",
		Status: status,
	}
}

// AttachFailed creates a thread-attachment error
func AttachFailed(status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindStatusFailure,
		Op:     "AttachCurrentThread",
		Status: status,
	}
}

// DetachFailed creates a thread-detachment error
func DetachFailed(status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseDetach,
		Kind:   KindStatusFailure,
		Op:     "DetachCurrentThread",
		Status: status,
	}
}

// Teardown creates a runtime-destruction error
func Teardown(status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseTeardown,
		Kind:   KindStatusFailure,
		Op:     "DestroyJavaVM",
		Status: status,
	}
}

// OptionRejected creates an error for a startup option the runtime
// refused under strict option handling.
func OptionRejected(option string) *Error {
	return &Error{
		Phase:  PhaseStartup,
		Kind:   KindOptionRejected,
		Detail: fmt.Sprintf("unrecognized option %q", option),
	}
}

// VersionUnsupported creates an error for a version the runtime does
// not provide.
func VersionUnsupported(v jniruntime.Version) *Error {
	return &Error{
		Phase:  PhaseStartup,
		Kind:   KindVersionUnsupported,
		Detail: fmt.Sprintf("interface version %s (0x%08x) not supported", v, uint32(v)),
	}
}

// Monitor creates a monitor operation error
func Monitor(op string, status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseMonitor,
		Kind:   KindStatusFailure,
		Op:     op,
		Status: status,
	}
}

// Frame creates a local-frame operation error
func Frame(op string, status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindStatusFailure,
		Op:     op,
		Status: status,
	}
}

// Capacity creates a local-capacity reservation error
func Capacity(requested int, status jniruntime.Status) *Error {
	return &Error{
		Phase:  PhaseRefs,
		Kind:   KindCapacity,
		Op:     "EnsureLocalCapacity",
		Status: status,
		Detail: fmt.Sprintf("requested %d local references", requested),
	}
}

// AlreadyDestroyed creates an error for operations on a torn-down runtime
func AlreadyDestroyed(op string) *Error {
	return &Error{
		Phase:  PhaseTeardown,
		Kind:   KindAlreadyDestroyed,
		Op:     op,
		Detail: "runtime has been destroyed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}
