package simvm

import (
	"unicode/utf16"

	"go.uber.org/zap"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/mutf8"
)

// envTable is the per-thread call-table slice. Every entry asserts it
// is called from the goroutine the table was handed to, which is the
// simulated form of the real interface's thread affinity.
type envTable struct {
	vm  *VM
	tid int64
}

var _ jniruntime.EnvTable = (*envTable)(nil)

// enter takes the runtime lock and returns the owning thread's state.
func (e *envTable) enter() *threadState {
	if goroutineID() != e.tid {
		panic("simvm: environment table used from the wrong thread")
	}
	e.vm.mu.Lock()
	ts, ok := e.vm.threads[e.tid]
	if !ok {
		e.vm.mu.Unlock()
		panic("simvm: environment table used after detach")
	}
	return ts
}

func (e *envTable) GetVersion() jniruntime.Version {
	e.enter()
	defer e.vm.mu.Unlock()
	return jniruntime.Version18
}

func (e *envTable) DefineClass(name string, loader jniruntime.Ref, classData []byte) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if len(classData) == 0 {
		e.vm.throwLocked(ts, ClassClassFormatError, "empty class file: "+name)
		return jniruntime.NullRef
	}
	if _, exists := e.vm.classes[name]; exists {
		e.vm.throwLocked(ts, ClassLinkageError, "duplicate class definition: "+name)
		return jniruntime.NullRef
	}
	c := &class{name: name, super: e.vm.objectC}
	c.obj = &object{class: e.vm.classC, represents: c}
	e.vm.classes[name] = c
	return e.vm.newLocalLocked(ts, c.obj)
}

func (e *envTable) FindClass(name string) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	c, ok := e.vm.classes[name]
	if !ok {
		e.vm.throwLocked(ts, ClassNoClassDefFound, name)
		return jniruntime.NullRef
	}
	return e.vm.newLocalLocked(ts, c.obj)
}

func (e *envTable) GetSuperclass(cls jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(cls)
	if o == nil || o.represents == nil || o.represents.super == nil {
		return jniruntime.NullRef
	}
	return e.vm.newLocalLocked(ts, o.represents.super.obj)
}

func (e *envTable) IsAssignableFrom(sub, sup jniruntime.Ref) bool {
	e.enter()
	defer e.vm.mu.Unlock()

	subO := e.vm.resolveLocked(sub)
	supO := e.vm.resolveLocked(sup)
	if subO == nil || supO == nil || subO.represents == nil || supO.represents == nil {
		return false
	}
	return subO.represents.isSubclassOf(supO.represents)
}

func (e *envTable) Throw(obj jniruntime.Ref) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(obj)
	if o == nil || o.class == nil || !o.class.isSubclassOf(e.vm.throwC) {
		return jniruntime.StatusErr
	}
	ts.pending = o
	return jniruntime.StatusOK
}

func (e *envTable) ThrowNew(cls jniruntime.Ref, msg string) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(cls)
	if o == nil || o.represents == nil || !o.represents.isSubclassOf(e.vm.throwC) {
		return jniruntime.StatusErr
	}
	ts.pending = &object{class: o.represents, message: msg}
	return jniruntime.StatusOK
}

func (e *envTable) ExceptionOccurred() jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if ts.pending == nil {
		return jniruntime.NullRef
	}
	return e.vm.newLocalLocked(ts, ts.pending)
}

func (e *envTable) ExceptionDescribe() {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if ts.pending == nil {
		return
	}
	e.vm.logger.Warn("pending exception",
		zap.String("class", ts.pending.class.name),
		zap.String("message", ts.pending.message),
		zap.Int64("thread", ts.tid))
}

func (e *envTable) ExceptionCheck() bool {
	ts := e.enter()
	defer e.vm.mu.Unlock()
	return ts.pending != nil
}

func (e *envTable) ExceptionClear() {
	ts := e.enter()
	defer e.vm.mu.Unlock()
	ts.pending = nil
}

func (e *envTable) FatalError(msg string) {
	e.vm.logger.Error("fatal error", zap.String("msg", msg))
	panic("simvm: fatal error: " + msg)
}

func (e *envTable) PushLocalFrame(capacity int32) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if capacity <= 0 {
		return jniruntime.StatusInvalid
	}
	if len(ts.frames) >= e.vm.maxFrames || int(capacity) > e.vm.maxCapacity {
		e.vm.throwLocked(ts, ClassOutOfMemoryError, "local frame stack exhausted")
		return jniruntime.StatusNoMemory
	}
	ts.frames = append(ts.frames, &frame{capacity: int(capacity)})
	return jniruntime.StatusOK
}

func (e *envTable) PopLocalFrame(result jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if len(ts.frames) == 1 {
		panic("simvm: PopLocalFrame without a matching push")
	}
	carried := e.vm.resolveLocked(result)

	top := ts.frames[len(ts.frames)-1]
	for _, ref := range top.refs {
		delete(e.vm.refs, ref)
	}
	ts.frames = ts.frames[:len(ts.frames)-1]

	if carried == nil {
		return jniruntime.NullRef
	}
	// The carried reference is guaranteed a slot in the parent frame.
	ref := e.vm.newRefLocked(carried, refLocal, ts.tid)
	parent := ts.frames[len(ts.frames)-1]
	parent.refs = append(parent.refs, ref)
	return ref
}

func (e *envTable) EnsureLocalCapacity(capacity int32) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	if capacity < 0 {
		return jniruntime.StatusInvalid
	}
	if int(capacity) > e.vm.maxCapacity {
		e.vm.throwLocked(ts, ClassOutOfMemoryError, "local reference capacity limit")
		return jniruntime.StatusNoMemory
	}
	f := ts.frames[len(ts.frames)-1]
	if int(capacity) > f.capacity {
		f.capacity = int(capacity)
	}
	return jniruntime.StatusOK
}

func (e *envTable) NewLocalRef(ref jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(ref)
	if o == nil {
		return jniruntime.NullRef
	}
	return e.vm.newLocalLocked(ts, o)
}

func (e *envTable) DeleteLocalRef(ref jniruntime.Ref) {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	e.deleteLocked(ref, refLocal)
	for _, f := range ts.frames {
		for i, r := range f.refs {
			if r == ref {
				f.refs = append(f.refs[:i], f.refs[i+1:]...)
				return
			}
		}
	}
}

func (e *envTable) NewGlobalRef(ref jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(ref)
	if o == nil {
		return jniruntime.NullRef
	}
	return e.vm.newRefLocked(o, refGlobal, ts.tid)
}

func (e *envTable) DeleteGlobalRef(ref jniruntime.Ref) {
	e.enter()
	defer e.vm.mu.Unlock()
	e.deleteLocked(ref, refGlobal)
}

func (e *envTable) NewWeakGlobalRef(ref jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(ref)
	if o == nil {
		return jniruntime.NullRef
	}
	return e.vm.newRefLocked(o, refWeak, ts.tid)
}

func (e *envTable) DeleteWeakGlobalRef(ref jniruntime.Ref) {
	e.enter()
	defer e.vm.mu.Unlock()
	e.deleteLocked(ref, refWeak)
}

// deleteLocked removes ref, asserting it has the kind the caller used.
// A mismatch is the exact misuse the safe layer exists to rule out, so
// the simulation makes it loud instead of silently corrupting tables.
func (e *envTable) deleteLocked(ref jniruntime.Ref, kind refKind) {
	entry, ok := e.vm.refs[ref]
	if !ok {
		panic("simvm: delete of unknown reference")
	}
	if entry.kind != kind {
		panic("simvm: " + entry.kind.String() + " reference deleted through the " +
			kind.String() + " entry")
	}
	delete(e.vm.refs, ref)
	switch kind {
	case refLocal:
		e.vm.stats.LocalDeletes++
	case refGlobal:
		e.vm.stats.GlobalDeletes++
	case refWeak:
		e.vm.stats.WeakDeletes++
	}
}

func (e *envTable) AllocObject(cls jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(cls)
	if o == nil || o.represents == nil {
		e.vm.throwLocked(ts, ClassInstantiation, "reference is not a class")
		return jniruntime.NullRef
	}
	inst := &object{class: o.represents}
	if o.represents == e.vm.stringC {
		inst.isString = true
	}
	return e.vm.newLocalLocked(ts, inst)
}

func (e *envTable) GetObjectClass(obj jniruntime.Ref) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(obj)
	if o == nil {
		return jniruntime.NullRef
	}
	return e.vm.newLocalLocked(ts, o.class.obj)
}

func (e *envTable) IsInstanceOf(obj, cls jniruntime.Ref) bool {
	e.enter()
	defer e.vm.mu.Unlock()

	c := e.vm.resolveLocked(cls)
	if c == nil || c.represents == nil {
		return false
	}
	o := e.vm.resolveLocked(obj)
	if o == nil {
		// null is assignable to every reference type
		return true
	}
	return o.class.isSubclassOf(c.represents)
}

func (e *envTable) IsSameObject(a, b jniruntime.Ref) bool {
	e.enter()
	defer e.vm.mu.Unlock()
	return e.vm.resolveLocked(a) == e.vm.resolveLocked(b)
}

func (e *envTable) MonitorEnter(obj jniruntime.Ref) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(obj)
	if o == nil {
		return jniruntime.StatusErr
	}
	for o.monOwner != 0 && o.monOwner != ts.tid {
		e.vm.cond.Wait()
	}
	o.monOwner = ts.tid
	o.monDepth++
	return jniruntime.StatusOK
}

func (e *envTable) MonitorExit(obj jniruntime.Ref) jniruntime.Status {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(obj)
	if o == nil || o.monOwner != ts.tid {
		e.vm.throwLocked(ts, ClassIllegalMonitor, "current thread does not own the monitor")
		return jniruntime.StatusErr
	}
	o.monDepth--
	if o.monDepth == 0 {
		o.monOwner = 0
		e.vm.cond.Broadcast()
	}
	return jniruntime.StatusOK
}

func (e *envTable) GetJavaVM() (jniruntime.VMTable, jniruntime.Status) {
	e.enter()
	defer e.vm.mu.Unlock()
	return &vmTable{vm: e.vm}, jniruntime.StatusOK
}

func (e *envTable) NewStringUTF(utf []byte) jniruntime.Ref {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	text, err := mutf8.Decode(utf)
	if err != nil {
		e.vm.throwLocked(ts, ClassIllegalArgument, "malformed modified UTF-8: "+err.Error())
		return jniruntime.NullRef
	}
	obj := &object{
		class:    e.vm.stringC,
		isString: true,
		text:     text,
		units:    utf16.Encode([]rune(text)),
	}
	return e.vm.newLocalLocked(ts, obj)
}

// stringObject resolves ref and asserts it is a string. Calling string
// entries on a non-string is undefined behavior on a real runtime; the
// simulation turns it into a panic.
func (e *envTable) stringObject(ref jniruntime.Ref) *object {
	o := e.vm.resolveLocked(ref)
	if o == nil || !o.isString {
		panic("simvm: string entry called on a non-string reference")
	}
	return o
}

func (e *envTable) GetStringLength(s jniruntime.Ref) int32 {
	e.enter()
	defer e.vm.mu.Unlock()
	return int32(len(e.stringObject(s).units))
}

func (e *envTable) GetStringUTFLength(s jniruntime.Ref) int32 {
	e.enter()
	defer e.vm.mu.Unlock()
	return int32(mutf8.EncodedLen(e.stringObject(s).text))
}

func (e *envTable) GetStringUTFChars(s jniruntime.Ref) ([]byte, bool) {
	e.enter()
	defer e.vm.mu.Unlock()

	o := e.stringObject(s)
	if e.vm.failUTFChars {
		e.vm.failUTFChars = false
		return nil, false
	}
	e.vm.utfLeases[s]++
	return mutf8.Encode(o.text), true
}

func (e *envTable) ReleaseStringUTFChars(s jniruntime.Ref, chars []byte) {
	e.enter()
	defer e.vm.mu.Unlock()

	if e.vm.utfLeases[s] == 0 {
		panic("simvm: release of string chars that were never borrowed")
	}
	e.vm.utfLeases[s]--
	if e.vm.utfLeases[s] == 0 {
		delete(e.vm.utfLeases, s)
	}
}

func (e *envTable) GetStringUTFRegion(s jniruntime.Ref, start, length int32, buf []byte) (int32, bool) {
	ts := e.enter()
	defer e.vm.mu.Unlock()

	o := e.stringObject(s)
	if start < 0 || length < 0 || int(start)+int(length) > len(o.units) {
		e.vm.throwLocked(ts, ClassStringIndex, "string region out of bounds")
		return 0, false
	}
	enc := mutf8.Encode(decodeUTF16(o.units[start : start+length]))
	return int32(copy(buf, enc)), true
}

func (e *envTable) GetArrayLength(arr jniruntime.Ref) int32 {
	e.enter()
	defer e.vm.mu.Unlock()

	o := e.vm.resolveLocked(arr)
	if o == nil || !o.isArray {
		panic("simvm: array entry called on a non-array reference")
	}
	return o.arrLen
}
