package simvm

import (
	"sync"
	"testing"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/mutf8"
)

func newRuntime(t *testing.T, opts ...Option) (*VM, jniruntime.VMTable, jniruntime.EnvTable) {
	t.Helper()
	vm := New(opts...)
	vmt, env, status := vm.CreateVM(&jniruntime.InitArgs{Version: jniruntime.Version18})
	if !status.OK() {
		t.Fatalf("CreateVM failed: %v", status)
	}
	return vm, vmt, env
}

func TestCreateVMRejectsUnknownVersion(t *testing.T) {
	vm := New()
	_, _, status := vm.CreateVM(&jniruntime.InitArgs{Version: jniruntime.Version(0x00090001)})
	if status != jniruntime.StatusVersion {
		t.Fatalf("expected version error, got %v", status)
	}
}

func TestCreateVMRejectsSecondInstance(t *testing.T) {
	vm, _, _ := newRuntime(t)
	_, _, status := vm.CreateVM(&jniruntime.InitArgs{Version: jniruntime.Version18})
	if status != jniruntime.StatusExist {
		t.Fatalf("expected already-exists error, got %v", status)
	}
}

func TestCreateVMOptionHandling(t *testing.T) {
	vm := New()
	_, _, status := vm.CreateVM(&jniruntime.InitArgs{
		Version: jniruntime.Version18,
		Options: []jniruntime.VMOption{{Option: "-bogus"}},
	})
	if status != jniruntime.StatusInvalid {
		t.Fatalf("strict mode should reject unknown options, got %v", status)
	}

	vm = New()
	_, _, status = vm.CreateVM(&jniruntime.InitArgs{
		Version: jniruntime.Version18,
		Options: []jniruntime.VMOption{
			{Option: "-bogus"},
			{Option: "-Djava.class.path=/tmp/classes"},
			{Option: "-Xmx512m"},
		},
		IgnoreUnrecognized: true,
	})
	if !status.OK() {
		t.Fatalf("lenient mode should skip unknown options, got %v", status)
	}
	if got := vm.Property("java.class.path"); got != "/tmp/classes" {
		t.Fatalf("property not recorded, got %q", got)
	}
}

func TestFindClassHitAndMiss(t *testing.T) {
	_, _, env := newRuntime(t)

	cls := env.FindClass(ClassString)
	if cls == jniruntime.NullRef {
		t.Fatal("bootstrap class lookup returned null")
	}
	if env.ExceptionCheck() {
		t.Fatal("successful lookup left an exception pending")
	}

	missing := env.FindClass("java/lang/String1")
	if missing != jniruntime.NullRef {
		t.Fatal("lookup of unknown class returned a reference")
	}
	if !env.ExceptionCheck() {
		t.Fatal("failed lookup did not set a pending exception")
	}

	thrown := env.ExceptionOccurred()
	thrownCls := env.GetObjectClass(thrown)
	ncdfe := env.FindClass(ClassNoClassDefFound)
	if !env.IsSameObject(thrownCls, ncdfe) {
		t.Fatal("failed lookup should pend NoClassDefFoundError")
	}
	env.ExceptionClear()
	if env.ExceptionCheck() {
		t.Fatal("clear did not remove the pending exception")
	}
}

func TestDefineClass(t *testing.T) {
	_, _, env := newRuntime(t)

	cls := env.DefineClass("com/example/Widget", jniruntime.NullRef, []byte{0xCA, 0xFE})
	if cls == jniruntime.NullRef {
		t.Fatal("DefineClass returned null")
	}
	sup := env.GetSuperclass(cls)
	objCls := env.FindClass(ClassObject)
	if !env.IsSameObject(sup, objCls) {
		t.Fatal("defined class should extend Object")
	}

	if env.DefineClass("com/example/Widget", jniruntime.NullRef, []byte{0xCA}) != jniruntime.NullRef {
		t.Fatal("duplicate definition returned a reference")
	}
	if !env.ExceptionCheck() {
		t.Fatal("duplicate definition did not pend an exception")
	}
	env.ExceptionClear()

	if env.DefineClass("com/example/Empty", jniruntime.NullRef, nil) != jniruntime.NullRef {
		t.Fatal("empty class data returned a reference")
	}
	env.ExceptionClear()
}

func TestGetEnvAttachDetach(t *testing.T) {
	_, vmt, _ := newRuntime(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		if _, status := vmt.GetEnv(jniruntime.Version18); status != jniruntime.StatusDetached {
			t.Errorf("unattached thread should report detached, got %v", status)
			return
		}
		env, status := vmt.AttachCurrentThread(&jniruntime.AttachArgs{
			Version: jniruntime.Version18, Name: "worker",
		})
		if !status.OK() {
			t.Errorf("attach failed: %v", status)
			return
		}
		if env.FindClass(ClassObject) == jniruntime.NullRef {
			t.Error("attached thread cannot look up classes")
			return
		}
		if status := vmt.DetachCurrentThread(); !status.OK() {
			t.Errorf("detach failed: %v", status)
			return
		}
		if status := vmt.DetachCurrentThread(); status.OK() {
			t.Error("double detach should fail")
		}
	}()
	wg.Wait()
}

func TestLocalFrameExhaustion(t *testing.T) {
	_, _, env := newRuntime(t, WithFrameCapacity(2))

	if env.FindClass(ClassObject) == jniruntime.NullRef {
		t.Fatal("first local failed")
	}
	if env.FindClass(ClassClass) == jniruntime.NullRef {
		t.Fatal("second local failed")
	}
	if env.FindClass(ClassString) != jniruntime.NullRef {
		t.Fatal("frame over capacity still handed out a local")
	}
	if !env.ExceptionCheck() {
		t.Fatal("frame exhaustion did not pend an exception")
	}
	env.ExceptionClear()

	if status := env.EnsureLocalCapacity(8); !status.OK() {
		t.Fatalf("EnsureLocalCapacity failed: %v", status)
	}
	if env.FindClass(ClassString) == jniruntime.NullRef {
		t.Fatal("grown frame rejected a local")
	}
}

func TestPushPopLocalFrame(t *testing.T) {
	_, _, env := newRuntime(t)

	if status := env.PushLocalFrame(4); !status.OK() {
		t.Fatalf("PushLocalFrame failed: %v", status)
	}
	inner := env.FindClass(ClassString)
	scratch := env.FindClass(ClassObject)

	carried := env.PopLocalFrame(inner)
	if carried == jniruntime.NullRef {
		t.Fatal("PopLocalFrame dropped the carried reference")
	}
	outer := env.FindClass(ClassString)
	if !env.IsSameObject(carried, outer) {
		t.Fatal("carried reference does not survive the frame boundary")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("use of a reference from a popped frame should panic")
		}
	}()
	env.IsSameObject(scratch, outer)
}

func TestGlobalAndWeakReferences(t *testing.T) {
	vm, _, env := newRuntime(t)

	str := env.NewStringUTF(mutf8.Encode("keep me"))
	global := env.NewGlobalRef(str)
	weak := env.NewWeakGlobalRef(str)
	if global == jniruntime.NullRef || weak == jniruntime.NullRef {
		t.Fatal("promotion returned null")
	}

	vm.CollectWeak()
	if env.IsSameObject(weak, jniruntime.NullRef) {
		t.Fatal("weak cleared while a global reference was live")
	}

	env.DeleteLocalRef(str)
	env.DeleteGlobalRef(global)
	vm.CollectWeak()
	if !env.IsSameObject(weak, jniruntime.NullRef) {
		t.Fatal("weak not cleared after the last strong reference died")
	}
	env.DeleteWeakGlobalRef(weak)

	stats := vm.Stats()
	if stats.LocalDeletes == 0 || stats.GlobalDeletes != 1 || stats.WeakDeletes != 1 {
		t.Fatalf("delete counters off: %+v", stats)
	}
}

func TestDeleteKindMismatchPanics(t *testing.T) {
	_, _, env := newRuntime(t)

	str := env.NewStringUTF(mutf8.Encode("x"))
	global := env.NewGlobalRef(str)

	defer func() {
		if recover() == nil {
			t.Fatal("deleting a global through the local entry should panic")
		}
	}()
	env.DeleteLocalRef(global)
}

func TestMonitors(t *testing.T) {
	_, _, env := newRuntime(t)

	cls := env.FindClass(ClassString)
	obj := env.AllocObject(cls)

	if status := env.MonitorEnter(obj); !status.OK() {
		t.Fatalf("MonitorEnter failed: %v", status)
	}
	if status := env.MonitorEnter(obj); !status.OK() {
		t.Fatalf("re-entrant MonitorEnter failed: %v", status)
	}
	if status := env.MonitorExit(obj); !status.OK() {
		t.Fatalf("first MonitorExit failed: %v", status)
	}
	if status := env.MonitorExit(obj); !status.OK() {
		t.Fatalf("second MonitorExit failed: %v", status)
	}

	if status := env.MonitorExit(obj); status.OK() {
		t.Fatal("exit without ownership should fail")
	}
	if !env.ExceptionCheck() {
		t.Fatal("unowned exit did not pend IllegalMonitorStateException")
	}
	thrownCls := env.GetObjectClass(env.ExceptionOccurred())
	imse := env.FindClass(ClassIllegalMonitor)
	if !env.IsSameObject(thrownCls, imse) {
		t.Fatal("wrong exception class for unowned monitor exit")
	}
	env.ExceptionClear()
}

func TestMonitorBlocksOtherThread(t *testing.T) {
	_, vmt, env := newRuntime(t)

	cls := env.FindClass(ClassObject)
	obj := env.AllocObject(cls)
	global := env.NewGlobalRef(obj)
	if status := env.MonitorEnter(global); !status.OK() {
		t.Fatalf("MonitorEnter failed: %v", status)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		other, status := vmt.AttachCurrentThread(&jniruntime.AttachArgs{Version: jniruntime.Version18})
		if !status.OK() {
			t.Errorf("attach failed: %v", status)
			close(entered)
			return
		}
		<-release
		other.MonitorEnter(global)
		other.MonitorExit(global)
		vmt.DetachCurrentThread()
		close(entered)
	}()

	close(release)
	if status := env.MonitorExit(global); !status.OK() {
		t.Fatalf("MonitorExit failed: %v", status)
	}
	<-entered
}

func TestStringOperations(t *testing.T) {
	vm, _, env := newRuntime(t)

	str := env.NewStringUTF(mutf8.Encode("hi!"))
	if str == jniruntime.NullRef {
		t.Fatal("NewStringUTF returned null")
	}
	if got := env.GetStringLength(str); got != 3 {
		t.Fatalf("UTF-16 length = %d, want 3", got)
	}
	if got := env.GetStringUTFLength(str); got != 3 {
		t.Fatalf("modified UTF-8 length = %d, want 3", got)
	}

	chars, _ := env.GetStringUTFChars(str)
	if string(chars) != "hi!" {
		t.Fatalf("borrowed chars = %q", chars)
	}
	if vm.Stats().UTFLeases != 1 {
		t.Fatal("borrow not tracked")
	}
	env.ReleaseStringUTFChars(str, chars)
	if vm.Stats().UTFLeases != 0 {
		t.Fatal("release not tracked")
	}

	cls := env.GetObjectClass(str)
	strCls := env.FindClass(ClassString)
	if !env.IsSameObject(cls, strCls) {
		t.Fatal("string object does not report the String class")
	}
}

func TestStringSupplementary(t *testing.T) {
	_, _, env := newRuntime(t)

	// U+1F600 is one rune, two UTF-16 units, six modified UTF-8 bytes.
	str := env.NewStringUTF(mutf8.Encode("\U0001F600"))
	if got := env.GetStringLength(str); got != 2 {
		t.Fatalf("UTF-16 length = %d, want 2", got)
	}
	if got := env.GetStringUTFLength(str); got != 6 {
		t.Fatalf("modified UTF-8 length = %d, want 6", got)
	}
}

func TestStringRegion(t *testing.T) {
	_, _, env := newRuntime(t)

	str := env.NewStringUTF(mutf8.Encode("hello"))
	buf := make([]byte, 16)
	n, ok := env.GetStringUTFRegion(str, 1, 3, buf)
	if !ok {
		t.Fatal("in-bounds region reported failure")
	}
	if string(buf[:n]) != "ell" {
		t.Fatalf("region = %q, want %q", buf[:n], "ell")
	}

	if _, ok := env.GetStringUTFRegion(str, 3, 9, buf); ok {
		t.Fatal("out-of-bounds region reported success")
	}
	if !env.ExceptionCheck() {
		t.Fatal("out-of-bounds region did not pend an exception")
	}
	env.ExceptionClear()
}

func TestThrowAndThrowNew(t *testing.T) {
	_, _, env := newRuntime(t)

	cls := env.FindClass(ClassRuntimeException)
	if status := env.ThrowNew(cls, "boom"); !status.OK() {
		t.Fatalf("ThrowNew failed: %v", status)
	}
	thrown := env.ExceptionOccurred()
	env.ExceptionClear()

	if status := env.Throw(thrown); !status.OK() {
		t.Fatalf("re-throw failed: %v", status)
	}
	again := env.ExceptionOccurred()
	if !env.IsSameObject(thrown, again) {
		t.Fatal("re-thrown object is not the original")
	}
	env.ExceptionClear()

	notThrowable := env.AllocObject(env.FindClass(ClassObject))
	if status := env.Throw(notThrowable); status.OK() {
		t.Fatal("throwing a non-throwable should fail")
	}
}

func TestClassHierarchy(t *testing.T) {
	_, _, env := newRuntime(t)

	rte := env.FindClass(ClassRuntimeException)
	throwable := env.FindClass(ClassThrowable)
	str := env.FindClass(ClassString)

	if !env.IsAssignableFrom(rte, throwable) {
		t.Fatal("RuntimeException should be assignable to Throwable")
	}
	if env.IsAssignableFrom(throwable, rte) {
		t.Fatal("Throwable should not be assignable to RuntimeException")
	}
	if env.IsAssignableFrom(str, throwable) {
		t.Fatal("String should not be assignable to Throwable")
	}

	obj := env.AllocObject(rte)
	if !env.IsInstanceOf(obj, throwable) {
		t.Fatal("instance check against a superclass failed")
	}
	if !env.IsInstanceOf(jniruntime.NullRef, str) {
		t.Fatal("null should be an instance of every class")
	}
}

func TestInjectedArray(t *testing.T) {
	vm, _, env := newRuntime(t)

	arr := vm.InjectArray(jniruntime.ArrayInt, 7)
	if got := env.GetArrayLength(arr); got != 7 {
		t.Fatalf("array length = %d, want 7", got)
	}
}

func TestFailNextUTFChars(t *testing.T) {
	vm, _, env := newRuntime(t)

	str := env.NewStringUTF(mutf8.Encode("x"))
	vm.FailNextUTFChars()
	if chars, _ := env.GetStringUTFChars(str); chars != nil {
		t.Fatal("forced failure still returned a buffer")
	}
	if chars, _ := env.GetStringUTFChars(str); chars == nil {
		t.Fatal("failure injection should only fire once")
	}
}
