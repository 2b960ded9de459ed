package errors

import (
	"errors"
	"strings"
	"testing"

	jniruntime "github.com/wippyai/jni-runtime"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseAttach,
				Kind:   KindStatusFailure,
				Op:     "AttachCurrentThread",
				Status: jniruntime.StatusNoMemory,
				Detail: "daemon attach",
			},
			contains: []string{"[attach]", "status_failure", "AttachCurrentThread", "-4", "out of memory", "daemon attach"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFrame,
				Kind:  KindCapacity,
			},
			contains: []string{"[frame]", "capacity"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseStartup,
				Kind:   KindOptionRejected,
				Detail: "bad flag",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[startup]", "option_rejected", "bad flag", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseTeardown,
		Kind:  KindStatusFailure,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(error(err)), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseMonitor,
		Kind:   KindStatusFailure,
		Op:     "MonitorExit",
		Status: jniruntime.StatusErr,
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseMonitor, Kind: KindStatusFailure}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseAttach, Kind: KindStatusFailure}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseMonitor, Kind: KindCapacity}) {
		t.Error("Is should not match different kind")
	}

	// Works through errors.Is with wrapping
	wrapped := New(PhaseEnv, KindStatusFailure).Cause(err).Build()
	if !errors.Is(wrapped, &Error{Phase: PhaseMonitor, Kind: KindStatusFailure}) {
		t.Error("errors.Is should match through the cause chain")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseRefs, KindCapacity).
		Op("EnsureLocalCapacity").
		Status(jniruntime.StatusNoMemory).
		Detail("requested %d", 512).
		Cause(cause).
		Build()

	if err.Phase != PhaseRefs || err.Kind != KindCapacity {
		t.Fatalf("builder lost phase/kind: %+v", err)
	}
	if err.Op != "EnsureLocalCapacity" {
		t.Errorf("Op = %q", err.Op)
	}
	if err.Status != jniruntime.StatusNoMemory {
		t.Errorf("Status = %v", err.Status)
	}
	if err.Detail != "requested 512" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if got := Startup(jniruntime.StatusExist); got.Phase != PhaseStartup || got.Status != jniruntime.StatusExist {
		t.Errorf("Startup: %+v", got)
	}
	if got := AttachFailed(jniruntime.StatusDetached); got.Phase != PhaseAttach {
		t.Errorf("AttachFailed: %+v", got)
	}
	if got := Teardown(jniruntime.StatusErr); got.Op != "DestroyJavaVM" {
		t.Errorf("Teardown: %+v", got)
	}
	if got := OptionRejected("-Xbogus"); !strings.Contains(got.Error(), "-Xbogus") {
		t.Errorf("OptionRejected: %v", got)
	}
	if got := VersionUnsupported(jniruntime.Version(0xdead)); got.Kind != KindVersionUnsupported {
		t.Errorf("VersionUnsupported: %+v", got)
	}
	if got := Capacity(64, jniruntime.StatusNoMemory); !strings.Contains(got.Error(), "64") {
		t.Errorf("Capacity: %v", got)
	}
	if got := AlreadyDestroyed("GetEnv"); got.Kind != KindAlreadyDestroyed {
		t.Errorf("AlreadyDestroyed: %+v", got)
	}
}
