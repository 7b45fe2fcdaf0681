package base

import "fmt"

// Error is an immutable, string-backed error, usable as a const. Unlike
// errors.New (which returns a pointer that consumers could reassign if
// stored carelessly), Error values compare equal by value, so errors.Is
// works via the default == comparison through wrapped chains.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrChainCapacityExceeded is not itself raised to callers (the
	// registry silently falls back to unconditional admission per the
	// cap's documented safety-valve behaviour, §4.C) but is exposed for
	// diagnostics and tests that want to assert the cap was hit.
	ErrChainCapacityExceeded Error = `base: slot chain registry at capacity, resource bypasses rule checking`
)

// BlockError is raised when a rule denies a call. It carries enough detail
// for the caller to understand why, and for tests to assert on (§7.1).
type BlockError struct {
	Resource ResourceWrapper
	Rule     any // the offending rule, typically a *flow.FlowRule; kept as any to avoid an import cycle
	Reason   string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf(`base: blocked: resource=%s reason=%s`, e.Resource, e.Reason)
}

// PairingError is raised when Exit is called on an entry that is not the
// context's current (top of stack) entry (§7.2). By the time it's raised,
// the best-effort unwind of intervening entries has already happened.
type PairingError struct {
	Resource ResourceWrapper
	Context  string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf(`base: entry pairing violated: resource=%s context=%s`, e.Resource, e.Context)
}

// ConfigError is raised synchronously at rule/controller construction time
// for invalid parameters (§7.4), e.g. a warm-up controller's coldFactor <= 1.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf(`base: invalid configuration: field=%s reason=%s`, e.Field, e.Reason)
}
