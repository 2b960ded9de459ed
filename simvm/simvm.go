package simvm

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"go.uber.org/zap"

	jniruntime "github.com/wippyai/jni-runtime"
)

// Bootstrap class names available in every simulated runtime.
const (
	ClassObject           = "java/lang/Object"
	ClassClass            = "java/lang/Class"
	ClassString           = "java/lang/String"
	ClassThrowable        = "java/lang/Throwable"
	ClassException        = "java/lang/Exception"
	ClassRuntimeException = "java/lang/RuntimeException"
	ClassIllegalArgument  = "java/lang/IllegalArgumentException"
	ClassIllegalMonitor   = "java/lang/IllegalMonitorStateException"
	ClassIndexOutOfBounds = "java/lang/IndexOutOfBoundsException"
	ClassStringIndex      = "java/lang/StringIndexOutOfBoundsException"
	ClassError            = "java/lang/Error"
	ClassLinkageError     = "java/lang/LinkageError"
	ClassNoClassDefFound  = "java/lang/NoClassDefFoundError"
	ClassClassFormatError = "java/lang/ClassFormatError"
	ClassInstantiation    = "java/lang/InstantiationError"
	ClassOutOfMemoryError = "java/lang/OutOfMemoryError"
)

type refKind uint8

const (
	refLocal refKind = iota
	refGlobal
	refWeak
)

func (k refKind) String() string {
	switch k {
	case refLocal:
		return "local"
	case refGlobal:
		return "global"
	case refWeak:
		return "weak"
	}
	return "invalid"
}

// class is a simulated class: a name, a super pointer and the heap
// object representing it.
type class struct {
	name  string
	super *class
	obj   *object
}

func (c *class) isSubclassOf(sup *class) bool {
	for cur := c; cur != nil; cur = cur.super {
		if cur == sup {
			return true
		}
	}
	return false
}

// object is a simulated heap object. Strings carry their UTF-16 code
// units, throwables their message, class objects the class they
// represent.
type object struct {
	class      *class
	represents *class

	isString bool
	text     string
	units    []uint16

	isArray bool
	arrKind jniruntime.ArrayKind
	arrLen  int32

	message string

	monOwner int64
	monDepth int
}

type refEntry struct {
	obj     *object
	kind    refKind
	tid     int64 // owning thread for locals
	cleared bool  // weak referent collected
}

type frame struct {
	capacity int
	refs     []jniruntime.Ref
}

type threadState struct {
	tid     int64
	name    string
	daemon  bool
	frames  []*frame
	pending *object
}

// Stats is a snapshot of the runtime's bookkeeping counters, exposed
// for leak and dispatch assertions in tests.
type Stats struct {
	LocalDeletes  int
	GlobalDeletes int
	WeakDeletes   int
	LiveRefs      int
	UTFLeases     int
}

// VM is a simulated runtime instance. It implements the Launcher
// interface of the root package; CreateVM hands out the process and
// per-thread call-table slices.
type VM struct {
	logger        *zap.Logger
	frameCapacity int
	maxFrames     int
	maxCapacity   int

	mu   sync.Mutex
	cond *sync.Cond

	created   bool
	destroyed bool
	version   jniruntime.Version

	classes map[string]*class
	objectC *class // java/lang/Object
	classC  *class // java/lang/Class
	stringC *class // java/lang/String
	throwC  *class // java/lang/Throwable

	props map[string]string

	nextRef   uintptr
	refs      map[jniruntime.Ref]*refEntry
	threads   map[int64]*threadState
	utfLeases map[jniruntime.Ref]int

	failUTFChars bool

	stats Stats
}

var (
	_ jniruntime.Launcher = (*VM)(nil)
	_ jniruntime.VMTable  = (*vmTable)(nil)
)

// Option configures a simulated runtime.
type Option func(*VM)

// WithLogger sets the logger used for exception describes and
// lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(vm *VM) {
		if l != nil {
			vm.logger = l
		}
	}
}

// WithFrameCapacity sets the default local-reference capacity of each
// frame.
func WithFrameCapacity(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.frameCapacity = n
		}
	}
}

// WithMaxFrames bounds the local-frame stack depth per thread.
func WithMaxFrames(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxFrames = n
		}
	}
}

// New builds a simulated runtime. The instance is inert until CreateVM.
func New(opts ...Option) *VM {
	vm := &VM{
		logger:        zap.NewNop(),
		frameCapacity: 16,
		maxFrames:     64,
		maxCapacity:   4096,
		classes:       make(map[string]*class),
		props:         make(map[string]string),
		refs:          make(map[jniruntime.Ref]*refEntry),
		threads:       make(map[int64]*threadState),
		utfLeases:     make(map[jniruntime.Ref]int),
	}
	vm.cond = sync.NewCond(&vm.mu)
	for _, opt := range opts {
		opt(vm)
	}
	vm.bootstrap()
	return vm
}

func (vm *VM) bootstrap() {
	define := func(name string, super *class) *class {
		c := &class{name: name, super: super}
		c.obj = &object{represents: c}
		vm.classes[name] = c
		return c
	}

	vm.objectC = define(ClassObject, nil)
	vm.classC = define(ClassClass, vm.objectC)
	vm.stringC = define(ClassString, vm.objectC)
	vm.throwC = define(ClassThrowable, vm.objectC)
	exception := define(ClassException, vm.throwC)
	rte := define(ClassRuntimeException, exception)
	define(ClassIllegalArgument, rte)
	define(ClassIllegalMonitor, rte)
	ioob := define(ClassIndexOutOfBounds, rte)
	define(ClassStringIndex, ioob)
	errC := define(ClassError, vm.throwC)
	linkage := define(ClassLinkageError, errC)
	define(ClassNoClassDefFound, linkage)
	define(ClassClassFormatError, linkage)
	define(ClassInstantiation, linkage)
	define(ClassOutOfMemoryError, errC)

	// Every class object is an instance of java/lang/Class, including
	// the class objects of Object and Class themselves.
	for _, c := range vm.classes {
		c.obj.class = vm.classC
	}
}

// CreateVM implements the Launcher interface. The creating goroutine
// becomes the runtime's main thread.
func (vm *VM) CreateVM(args *jniruntime.InitArgs) (jniruntime.VMTable, jniruntime.EnvTable, jniruntime.Status) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.created && !vm.destroyed {
		return nil, nil, jniruntime.StatusExist
	}
	if !args.Version.Supported() || args.Version > jniruntime.Version18 {
		return nil, nil, jniruntime.StatusVersion
	}
	for _, opt := range args.Options {
		if !vm.applyOption(opt.Option) && !args.IgnoreUnrecognized {
			vm.logger.Warn("unrecognized option", zap.String("option", opt.Option))
			return nil, nil, jniruntime.StatusInvalid
		}
	}

	vm.created = true
	vm.destroyed = false
	vm.version = args.Version

	tid := goroutineID()
	ts := vm.attachLocked(tid, "main", false)
	vm.logger.Debug("runtime created",
		zap.Stringer("version", args.Version), zap.Int64("main_thread", tid))
	return &vmTable{vm: vm}, &envTable{vm: vm, tid: ts.tid}, jniruntime.StatusOK
}

func (vm *VM) applyOption(opt string) bool {
	switch {
	case strings.HasPrefix(opt, "-D"):
		kv := strings.SplitN(opt[2:], "=", 2)
		if len(kv) == 2 {
			vm.props[kv[0]] = kv[1]
		} else {
			vm.props[kv[0]] = ""
		}
		return true
	case strings.HasPrefix(opt, "-Xms"),
		strings.HasPrefix(opt, "-Xmx"),
		strings.HasPrefix(opt, "-Xss"),
		strings.HasPrefix(opt, "-Xcheck:jni"),
		strings.HasPrefix(opt, "-verbose"):
		return true
	}
	return false
}

func (vm *VM) attachLocked(tid int64, name string, daemon bool) *threadState {
	if ts, ok := vm.threads[tid]; ok {
		return ts
	}
	ts := &threadState{
		tid:    tid,
		name:   name,
		daemon: daemon,
		frames: []*frame{{capacity: vm.frameCapacity}},
	}
	vm.threads[tid] = ts
	return ts
}

func (vm *VM) detachLocked(ts *threadState) {
	for _, f := range ts.frames {
		for _, ref := range f.refs {
			delete(vm.refs, ref)
		}
	}
	delete(vm.threads, ts.tid)
}

// Property returns the value of a system property passed as a -D
// startup option.
func (vm *VM) Property(key string) string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.props[key]
}

// Stats returns the current bookkeeping counters.
func (vm *VM) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	s := vm.stats
	s.LiveRefs = len(vm.refs)
	for _, n := range vm.utfLeases {
		s.UTFLeases += n
	}
	return s
}

// FailNextUTFChars makes the next GetStringUTFChars call report
// allocation failure.
func (vm *VM) FailNextUTFChars() {
	vm.mu.Lock()
	vm.failUTFChars = true
	vm.mu.Unlock()
}

// CollectWeak simulates a garbage-collection cycle: any object
// reachable only through weak references is collected and its weak
// references are cleared. Class objects are never collected.
func (vm *VM) CollectWeak() {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	live := make(map[*object]bool)
	for _, e := range vm.refs {
		if e.kind != refWeak && !e.cleared {
			live[e.obj] = true
		}
	}
	for _, ts := range vm.threads {
		if ts.pending != nil {
			live[ts.pending] = true
		}
	}
	for _, e := range vm.refs {
		if e.kind == refWeak && !e.cleared && e.obj.represents == nil && !live[e.obj] {
			e.cleared = true
		}
	}
}

// InjectArray creates an array object and hands the calling thread a
// local reference to it. The caller must be attached. Arrays cannot be
// created through the call-table subset the safe layer binds, so tests
// use this side door.
func (vm *VM) InjectArray(kind jniruntime.ArrayKind, length int32) jniruntime.Ref {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	ts := vm.threads[goroutineID()]
	if ts == nil {
		panic("simvm: InjectArray from an unattached goroutine")
	}
	obj := &object{class: vm.objectC, isArray: true, arrKind: kind, arrLen: length}
	return vm.newLocalLocked(ts, obj)
}

func (vm *VM) newRefLocked(obj *object, kind refKind, tid int64) jniruntime.Ref {
	vm.nextRef++
	ref := jniruntime.Ref(vm.nextRef)
	vm.refs[ref] = &refEntry{obj: obj, kind: kind, tid: tid}
	return ref
}

// newLocalLocked allocates a local reference in the thread's current
// frame, raising a simulated out-of-memory condition when the frame is
// full.
func (vm *VM) newLocalLocked(ts *threadState, obj *object) jniruntime.Ref {
	f := ts.frames[len(ts.frames)-1]
	if len(f.refs) >= f.capacity {
		vm.throwLocked(ts, ClassOutOfMemoryError, "local reference frame exhausted")
		return jniruntime.NullRef
	}
	ref := vm.newRefLocked(obj, refLocal, ts.tid)
	f.refs = append(f.refs, ref)
	return ref
}

// resolveLocked maps a reference to its object. NullRef and cleared
// weak references resolve to nil; an unknown reference is a caller bug
// the simulation refuses to paper over.
func (vm *VM) resolveLocked(ref jniruntime.Ref) *object {
	if ref == jniruntime.NullRef {
		return nil
	}
	e, ok := vm.refs[ref]
	if !ok {
		panic("simvm: use of unknown or deleted reference")
	}
	if e.cleared {
		return nil
	}
	return e.obj
}

func (vm *VM) throwLocked(ts *threadState, className, msg string) {
	c := vm.classes[className]
	ts.pending = &object{class: c, message: msg}
}

// decodeUTF16 converts stored UTF-16 code units back to a Go string.
func decodeUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}

// vmTable is the process-wide call-table slice.
type vmTable struct {
	vm *VM
}

func (t *vmTable) DestroyJavaVM() jniruntime.Status {
	vm := t.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if !vm.created || vm.destroyed {
		return jniruntime.StatusErr
	}
	vm.destroyed = true
	for _, ts := range vm.threads {
		vm.detachLocked(ts)
	}
	vm.logger.Debug("runtime destroyed")
	return jniruntime.StatusOK
}

func (t *vmTable) AttachCurrentThread(args *jniruntime.AttachArgs) (jniruntime.EnvTable, jniruntime.Status) {
	return t.attach(args, false)
}

func (t *vmTable) AttachCurrentThreadAsDaemon(args *jniruntime.AttachArgs) (jniruntime.EnvTable, jniruntime.Status) {
	return t.attach(args, true)
}

func (t *vmTable) attach(args *jniruntime.AttachArgs, daemon bool) (jniruntime.EnvTable, jniruntime.Status) {
	vm := t.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if !vm.created || vm.destroyed {
		return nil, jniruntime.StatusErr
	}
	if args != nil && args.Version != 0 && !args.Version.Supported() {
		return nil, jniruntime.StatusVersion
	}
	name := ""
	if args != nil {
		name = args.Name
	}
	ts := vm.attachLocked(goroutineID(), name, daemon)
	return &envTable{vm: vm, tid: ts.tid}, jniruntime.StatusOK
}

func (t *vmTable) DetachCurrentThread() jniruntime.Status {
	vm := t.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()

	ts, ok := vm.threads[goroutineID()]
	if !ok {
		return jniruntime.StatusErr
	}
	vm.detachLocked(ts)
	return jniruntime.StatusOK
}

func (t *vmTable) GetEnv(version jniruntime.Version) (jniruntime.EnvTable, jniruntime.Status) {
	vm := t.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if !vm.created || vm.destroyed {
		return nil, jniruntime.StatusErr
	}
	if !version.Supported() || version > jniruntime.Version18 {
		return nil, jniruntime.StatusVersion
	}
	ts, ok := vm.threads[goroutineID()]
	if !ok {
		return nil, jniruntime.StatusDetached
	}
	return &envTable{vm: vm, tid: ts.tid}, jniruntime.StatusOK
}

// goroutineID extracts the current goroutine's numeric id from its
// stack header. Slow, but the simulation is a test harness, not a
// production runtime.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		panic("simvm: malformed stack header")
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		panic("simvm: malformed goroutine id: " + err.Error())
	}
	return id
}
