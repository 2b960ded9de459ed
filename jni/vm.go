package jni

import (
	"runtime"
	"sync"

	jniruntime "github.com/wippyai/jni-runtime"
	jnierrors "github.com/wippyai/jni-runtime/errors"
	"go.uber.org/zap"
)

// VM owns a native runtime instance. Unlike Env it is safe to share
// across goroutines: attachment hands out per-thread environments and
// Destroy is serialized.
type VM struct {
	table   jniruntime.VMTable
	version jniruntime.Version

	mu        sync.Mutex
	destroyed bool
}

// NewVM creates the native runtime and returns the process handle
// together with the environment of the creating thread. The calling
// goroutine is locked to its OS thread for the lifetime of that
// environment.
func NewVM(launcher jniruntime.Launcher, args *jniruntime.InitArgs) (*VM, *Env, *Capability, error) {
	if !args.Version.Supported() {
		return nil, nil, nil, jnierrors.VersionUnsupported(args.Version)
	}

	runtime.LockOSThread()
	vmTable, envTable, status := launcher.CreateVM(args)
	if !status.OK() {
		runtime.UnlockOSThread()
		return nil, nil, nil, jnierrors.Startup(status)
	}

	vm := &VM{table: vmTable, version: args.Version}
	env := &Env{table: envTable, vm: vm}
	Logger().Debug("runtime created", zap.Stringer("version", args.Version))
	return vm, env, env.issueCapability(), nil
}

// Version returns the interface revision the runtime was created with.
func (vm *VM) Version() jniruntime.Version { return vm.version }

// GetEnv returns the environment of the current thread, attaching the
// thread to the runtime if necessary. A thread attached here is
// detached again when its Env is closed; a thread that was already
// attached is left attached. The calling goroutine is locked to its OS
// thread until Close.
func (vm *VM) GetEnv(name string) (*Env, *Capability, error) {
	return vm.getEnv(name, vm.table.AttachCurrentThread)
}

// GetEnvDaemon is GetEnv attaching as a daemon thread, which does not
// block runtime destruction.
func (vm *VM) GetEnvDaemon(name string) (*Env, *Capability, error) {
	return vm.getEnv(name, vm.table.AttachCurrentThreadAsDaemon)
}

func (vm *VM) getEnv(name string, attach func(*jniruntime.AttachArgs) (jniruntime.EnvTable, jniruntime.Status)) (*Env, *Capability, error) {
	runtime.LockOSThread()

	envTable, status := vm.table.GetEnv(vm.version)
	switch status {
	case jniruntime.StatusOK:
		env := &Env{table: envTable, vm: vm}
		return env, env.issueCapability(), nil
	case jniruntime.StatusDetached:
		// fall through to attach
	default:
		runtime.UnlockOSThread()
		return nil, nil, jnierrors.StatusFailure(jnierrors.PhaseAttach, "GetEnv", status)
	}

	envTable, status = attach(&jniruntime.AttachArgs{Version: vm.version, Name: name})
	if !status.OK() {
		runtime.UnlockOSThread()
		return nil, nil, jnierrors.AttachFailed(status)
	}
	env := &Env{table: envTable, vm: vm, detach: true}
	Logger().Debug("thread attached", zap.String("name", name))
	return env, env.issueCapability(), nil
}

// unlockThread releases the OS thread lock taken when the environment
// was obtained.
func (vm *VM) unlockThread() {
	runtime.UnlockOSThread()
}

// Destroy unloads the runtime, waiting for non-daemon threads. It is
// idempotent; a teardown failure from the native layer is fatal, there
// is no recovery from a half-destroyed runtime.
func (vm *VM) Destroy() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.destroyed {
		return
	}
	vm.destroyed = true

	if status := vm.table.DestroyJavaVM(); !status.OK() {
		fatal("DestroyJavaVM failed", zap.Stringer("status", status))
	}
	Logger().Debug("runtime destroyed")
}
