package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/jni"
	"github.com/wippyai/jni-runtime/simvm"
)

// session drives one runtime environment from textual commands. It
// owns the current protocol token: most commands need the capability,
// and while an exception is pending only check/describe/clear/release
// are accepted.
type session struct {
	sim *simvm.VM
	vm  *jni.VM
	env *jni.Env
	cap *jni.Capability
	exc *jni.Exception

	handles map[string]jni.AnyRef
	next    int
}

func newSession(sim *simvm.VM, vm *jni.VM, env *jni.Env, cap *jni.Capability) *session {
	return &session{
		sim:     sim,
		vm:      vm,
		env:     env,
		cap:     cap,
		handles: make(map[string]jni.AnyRef),
	}
}

func (s *session) close() {
	for _, h := range s.handles {
		h.Release()
	}
	if s.exc != nil {
		s.cap = s.env.ExceptionClear(s.exc)
		s.exc = nil
	}
	s.env.Close()
	s.vm.Destroy()
}

// bind stores a handle under a fresh $n name.
func (s *session) bind(h jni.AnyRef) string {
	s.next++
	name := "$" + strconv.Itoa(s.next)
	s.handles[name] = h
	return name
}

func (s *session) lookup(name string) (jni.AnyRef, error) {
	h, ok := s.handles[name]
	if !ok {
		return nil, fmt.Errorf("unknown handle %s", name)
	}
	return h, nil
}

func (s *session) lookupClass(name string) (*jni.Class, error) {
	h, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	cls, ok := h.(*jni.Class)
	if !ok {
		return nil, fmt.Errorf("%s is not a class handle", name)
	}
	return cls, nil
}

func (s *session) needCap() error {
	if s.exc != nil {
		return fmt.Errorf("exception pending; use 'describe', 'clear' or 'check'")
	}
	return nil
}

// settle records the token returned by a fallible call.
func (s *session) settle(cap *jni.Capability, exc *jni.Exception) {
	s.cap = cap
	s.exc = exc
}

// eval executes one command line and returns its output.
func (s *session) eval(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return helpText, nil

	case "version":
		if err := s.needCap(); err != nil {
			return "", err
		}
		return s.env.Version(s.cap).String(), nil

	case "find":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: find <class-name>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		cls, cap, exc := s.env.FindClass(s.cap, args[0])
		s.settle(cap, exc)
		if exc != nil {
			return "", fmt.Errorf("class %s not found (exception pending)", args[0])
		}
		return s.bind(cls) + " = class " + args[0], nil

	case "str":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: str <text>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		text := strings.Join(args, " ")
		str, cap, exc := s.env.NewString(s.cap, text)
		s.settle(cap, exc)
		if exc != nil {
			return "", fmt.Errorf("string construction failed (exception pending)")
		}
		return s.bind(str) + " = string " + strconv.Quote(text), nil

	case "alloc":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: alloc <class-handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		cls, err := s.lookupClass(args[0])
		if err != nil {
			return "", err
		}
		obj, cap, exc := cls.Alloc(s.cap)
		s.settle(cap, exc)
		if exc != nil {
			return "", fmt.Errorf("allocation failed (exception pending)")
		}
		return s.bind(obj) + " = object", nil

	case "len":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: len <string-handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		h, err := s.lookup(args[0])
		if err != nil {
			return "", err
		}
		str, ok := h.(*jni.String)
		if !ok {
			return "", fmt.Errorf("%s is not a string handle", args[0])
		}
		return fmt.Sprintf("%d utf16 units, %d mutf8 bytes",
			str.Length(s.cap), str.UTFLength(s.cap)), nil

	case "text":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: text <string-handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		h, err := s.lookup(args[0])
		if err != nil {
			return "", err
		}
		str, ok := h.(*jni.String)
		if !ok {
			return "", fmt.Errorf("%s is not a string handle", args[0])
		}
		text, err := str.Text(s.cap)
		if err != nil {
			return "", err
		}
		return strconv.Quote(text), nil

	case "global", "weak":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <handle>", cmd)
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		return s.promote(cmd, args[0])

	case "release":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: release <handle>")
		}
		h, err := s.lookup(args[0])
		if err != nil {
			return "", err
		}
		h.Release()
		delete(s.handles, args[0])
		return args[0] + " released", nil

	case "same":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: same <handle> <handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		a, err := s.lookup(args[0])
		if err != nil {
			return "", err
		}
		b, err := s.lookup(args[1])
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(s.env.IsSameObject(s.cap, a, b)), nil

	case "class":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: class <handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		h, err := s.lookup(args[0])
		if err != nil {
			return "", err
		}
		obj, ok := h.(interface {
			ObjectClass(*jni.Capability) *jni.Class
		})
		if !ok {
			return "", fmt.Errorf("%s has no class", args[0])
		}
		return s.bind(obj.ObjectClass(s.cap)) + " = class of " + args[0], nil

	case "super":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: super <class-handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		cls, err := s.lookupClass(args[0])
		if err != nil {
			return "", err
		}
		sup := cls.Super(s.cap)
		if sup == nil {
			return "no superclass", nil
		}
		return s.bind(sup) + " = superclass of " + args[0], nil

	case "throw":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: throw <class-handle> [message]")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		cls, err := s.lookupClass(args[0])
		if err != nil {
			return "", err
		}
		exc, err := s.env.ThrowNew(s.cap, cls, strings.Join(args[1:], " "))
		if err != nil {
			s.cap, s.exc = s.env.ExceptionCheck()
			return "", err
		}
		s.settle(nil, exc)
		return "exception pending", nil

	case "check":
		s.cap, s.exc = s.env.ExceptionCheck()
		if s.exc != nil {
			return "exception pending", nil
		}
		return "no exception", nil

	case "describe":
		if s.exc == nil {
			return "", fmt.Errorf("no exception pending")
		}
		s.env.ExceptionDescribe(s.exc)
		return "described", nil

	case "clear":
		if s.exc == nil {
			return "", fmt.Errorf("no exception pending")
		}
		s.cap = s.env.ExceptionClear(s.exc)
		s.exc = nil
		return "cleared", nil

	case "push":
		if err := s.needCap(); err != nil {
			return "", err
		}
		capacity := 16
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("bad capacity %q", args[0])
			}
			capacity = n
		}
		cap, exc, err := s.env.PushLocalFrame(s.cap, capacity)
		s.settle(cap, exc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("frame pushed (capacity %d)", capacity), nil

	case "pop":
		if err := s.needCap(); err != nil {
			return "", err
		}
		// Handles created inside the frame are invalidated by the pop,
		// so the shell only offers the discarding form; the carrying
		// form would leave stale session names behind.
		s.env.PopLocalFrameDiscard(s.cap)
		return "frame popped", nil

	case "monitor":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: monitor <enter|exit> <handle>")
		}
		if err := s.needCap(); err != nil {
			return "", err
		}
		h, err := s.lookup(args[1])
		if err != nil {
			return "", err
		}
		switch args[0] {
		case "enter":
			if status := s.env.MonitorEnter(s.cap, h); !status.OK() {
				return "", fmt.Errorf("monitor enter: %s", status)
			}
			return "monitor entered", nil
		case "exit":
			cap, exc, err := s.env.MonitorExit(s.cap, h)
			s.settle(cap, exc)
			if err != nil {
				return "", err
			}
			return "monitor exited", nil
		}
		return "", fmt.Errorf("usage: monitor <enter|exit> <handle>")

	case "collect":
		if s.sim == nil {
			return "", fmt.Errorf("no simulated runtime attached")
		}
		s.sim.CollectWeak()
		return "weak references collected", nil

	case "info":
		return s.info(), nil
	}

	return "", fmt.Errorf("unknown command %q; try 'help'", cmd)
}

func (s *session) promote(kind, name string) (string, error) {
	h, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	obj, ok := h.(*jni.Object)
	if !ok {
		// Promote through the base handle; typed wrappers share it.
		switch t := h.(type) {
		case *jni.Class:
			obj = &t.Object
		case *jni.String:
			obj = &t.Object
		case *jni.Throwable:
			obj = &t.Object
		default:
			return "", fmt.Errorf("%s cannot be promoted", name)
		}
	}

	var (
		dup *jni.Object
		cap *jni.Capability
		exc *jni.Exception
	)
	if kind == "global" {
		dup, cap, exc = obj.Global(s.cap)
	} else {
		dup, cap, exc = obj.Weak(s.cap)
	}
	s.settle(cap, exc)
	if exc != nil {
		return "", fmt.Errorf("promotion failed (exception pending)")
	}
	return s.bind(dup) + " = " + kind + " of " + name, nil
}

func (s *session) info() string {
	if len(s.handles) == 0 {
		return "no handles"
	}
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		h := s.handles[name]
		fmt.Fprintf(&b, "%s  %-6s  %T\n", name, h.Kind(), h)
	}
	if s.exc != nil {
		b.WriteString("state: exception pending\n")
	} else {
		b.WriteString("state: capability held\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// startSession builds a simulated runtime from args and opens a
// session on its main thread.
func startSession(args *jniruntime.InitArgs, opts ...simvm.Option) (*session, error) {
	sim := simvm.New(opts...)
	vm, env, cap, err := jni.NewVM(sim, args)
	if err != nil {
		return nil, err
	}
	return newSession(sim, vm, env, cap), nil
}

const helpText = `commands:
  find <class>             look up a class (java/lang/String)
  str <text>               construct a runtime string
  alloc <class-handle>     allocate an instance without a constructor
  len <string-handle>      report UTF-16 and modified UTF-8 lengths
  text <string-handle>     decode a string
  global <handle>          promote to a global reference
  weak <handle>            promote to a weak reference
  release <handle>         release a reference
  same <a> <b>             identity comparison
  class <handle>           class of a referent
  super <class-handle>     superclass
  throw <class> [msg]      construct and throw
  check                    query the pending-exception state
  describe                 describe the pending exception
  clear                    clear the pending exception
  push [n] / pop           local reference frames
  monitor enter|exit <h>   object monitors
  collect                  clear weakly reachable objects
  info                     list handles and protocol state
  help                     this text`
