package jni_test

import (
	"testing"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/jni"
	"github.com/wippyai/jni-runtime/simvm"
)

func newEnv(t *testing.T, opts ...simvm.Option) (*simvm.VM, *jni.VM, *jni.Env, *jni.Capability) {
	t.Helper()
	sim := simvm.New(opts...)
	vm, env, cap, err := jni.NewVM(sim, &jniruntime.InitArgs{Version: jniruntime.Version18})
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	return sim, vm, env, cap
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", name)
		}
	}()
	fn()
}

func TestCapabilityReuseAfterConsumePanics(t *testing.T) {
	_, _, env, cap := newEnv(t)

	_, fresh, exc := env.FindClass(cap, simvm.ClassString)
	if exc != nil {
		t.Fatalf("lookup failed: %v", exc)
	}
	_ = fresh

	mustPanic(t, "reuse of a consumed capability", func() {
		env.FindClass(cap, simvm.ClassObject)
	})
}

func TestStaleCapabilityAfterExceptionPanics(t *testing.T) {
	_, _, env, cap := newEnv(t)

	_, _, exc := env.FindClass(cap, "java/lang/String1")
	if exc == nil {
		t.Fatal("lookup of unknown class succeeded")
	}

	// The failed call consumed cap; even a borrowing operation must
	// refuse it while the exception is pending.
	mustPanic(t, "borrow while exception pending", func() {
		env.Version(cap)
	})
}

func TestForeignCapabilityPanics(t *testing.T) {
	_, _, envA, capA := newEnv(t)
	_, _, envB, _ := newEnv(t)
	_ = envA

	mustPanic(t, "capability from another environment", func() {
		envB.FindClass(capA, simvm.ClassObject)
	})
}

func TestNilCapabilityPanics(t *testing.T) {
	_, _, env, _ := newEnv(t)

	mustPanic(t, "nil capability", func() {
		env.FindClass(nil, simvm.ClassObject)
	})
}

func TestExceptionTokenReuseAfterClearPanics(t *testing.T) {
	_, _, env, cap := newEnv(t)

	_, _, exc := env.FindClass(cap, "no/such/Class")
	if exc == nil {
		t.Fatal("lookup of unknown class succeeded")
	}
	cap = env.ExceptionClear(exc)
	_ = cap

	mustPanic(t, "reuse of a cleared exception token", func() {
		env.ExceptionDescribe(exc)
	})
}

func TestExceptionTokenWithoutPendingPanics(t *testing.T) {
	_, _, env, cap := newEnv(t)
	_ = cap

	mustPanic(t, "fabricated exception token", func() {
		var exc *jni.Exception
		env.ExceptionDescribe(exc)
	})
}

func TestExceptionCheckReissuesToken(t *testing.T) {
	_, _, env, cap := newEnv(t)

	_, _, exc := env.FindClass(cap, "no/such/Class")
	if exc == nil {
		t.Fatal("lookup of unknown class succeeded")
	}

	// ExceptionCheck invalidates exc and issues the authoritative
	// replacement.
	cap2, exc2 := env.ExceptionCheck()
	if cap2 != nil || exc2 == nil {
		t.Fatal("ExceptionCheck disagreed with the pending state")
	}
	mustPanic(t, "superseded exception token", func() {
		env.ExceptionDescribe(exc)
	})

	cap = env.ExceptionClear(exc2)
	cap3, exc3 := env.ExceptionCheck()
	if cap3 == nil || exc3 != nil {
		t.Fatal("ExceptionCheck still reports a pending exception after clear")
	}
	mustPanic(t, "superseded capability", func() {
		env.Version(cap)
	})
}

func TestExceptionError(t *testing.T) {
	_, _, env, cap := newEnv(t)

	_, _, exc := env.FindClass(cap, "no/such/Class")
	if exc == nil {
		t.Fatal("lookup of unknown class succeeded")
	}
	if exc.Error() == "" {
		t.Fatal("exception token must describe itself as an error")
	}
	if exc.Env() != env {
		t.Fatal("exception token lost its environment")
	}
	env.ExceptionClear(exc)
}
