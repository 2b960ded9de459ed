package jni

import "go.uber.org/zap"

// envState is the two-state machine every Env runs:
// capability <-> exception, driven only by fallible calls and the
// exception-state queries.
type envState uint8

const (
	stateCapability envState = iota
	stateException
)

// Capability proves that no exception is pending on its Env. It is
// required by every operation that is unsafe to perform while an
// exception is pending. Operations that can themselves raise an
// exception consume it; operations that cannot raise borrow it.
//
// A Capability is not copyable in any meaningful way: it is only valid
// while it is the Env's single live token, and any use after it has
// been consumed (or after another token was issued) panics.
type Capability struct {
	env *Env
	gen uint64
}

// Exception proves that an exception is pending on its Env. It is the
// expected, recoverable failure class: inspect it with
// ExceptionOccurred/ExceptionDescribe, then convert it back into a
// Capability with ExceptionClear.
type Exception struct {
	env *Env
	gen uint64
}

// Error implements the error interface so the token can travel
// ordinary Go return paths.
func (e *Exception) Error() string {
	return "pending exception in runtime environment"
}

// Env returns the environment the exception is pending on.
func (e *Exception) Env() *Env { return e.env }

// issueCapability invalidates all outstanding tokens and hands out the
// new single live token.
func (env *Env) issueCapability() *Capability {
	env.tokenGen++
	env.state = stateCapability
	return &Capability{env: env, gen: env.tokenGen}
}

// issueException invalidates all outstanding tokens and hands out the
// new single live token.
func (env *Env) issueException() *Exception {
	env.tokenGen++
	env.state = stateException
	return &Exception{env: env, gen: env.tokenGen}
}

// borrowCapability validates cap for a non-consuming use.
func (env *Env) borrowCapability(cap *Capability, op string) {
	env.checkCapability(cap, op)
}

// consumeCapability validates cap and kills it. The caller must issue
// a fresh token (capability or exception) before returning.
func (env *Env) consumeCapability(cap *Capability, op string) {
	env.checkCapability(cap, op)
	// Bumping the generation here makes the old binding unusable even
	// if the native call below panics before a new token is issued.
	env.tokenGen++
}

func (env *Env) checkCapability(cap *Capability, op string) {
	switch {
	case cap == nil:
		fatal("nil capability token", zap.String("op", op))
	case cap.env != env:
		fatal("capability token belongs to a different environment", zap.String("op", op))
	case env.state != stateCapability:
		fatal("capability used while an exception is pending", zap.String("op", op))
	case cap.gen != env.tokenGen:
		fatal("capability token reused after being consumed", zap.String("op", op),
			zap.Uint64("token_gen", cap.gen), zap.Uint64("env_gen", env.tokenGen))
	}
}

// borrowException validates exc for a non-consuming use.
func (env *Env) borrowException(exc *Exception, op string) {
	env.checkException(exc, op)
}

// consumeException validates exc and kills it.
func (env *Env) consumeException(exc *Exception, op string) {
	env.checkException(exc, op)
	env.tokenGen++
}

func (env *Env) checkException(exc *Exception, op string) {
	switch {
	case exc == nil:
		fatal("nil exception token", zap.String("op", op))
	case exc.env != env:
		fatal("exception token belongs to a different environment", zap.String("op", op))
	case env.state != stateException:
		fatal("exception token used with no exception pending", zap.String("op", op))
	case exc.gen != env.tokenGen:
		fatal("exception token reused after being consumed", zap.String("op", op),
			zap.Uint64("token_gen", exc.gen), zap.Uint64("env_gen", env.tokenGen))
	}
}
