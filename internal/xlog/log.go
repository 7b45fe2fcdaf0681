// Package xlog provides the structured logging used for the fail-open
// internal-fault policy (internal faults are logged at INFO and the
// call is admitted, never denied because of a logging problem).
//
// It wires github.com/joeycumines/logiface (the generic logger) to
// github.com/joeycumines/stumpy (a JSON writer), the same pairing the
// logiface-stumpy integration module in the wider corpus uses.
package xlog

import (
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *logiface.Logger[*stumpy.Event] {
	return logiface.New[*stumpy.Event](
		logiface.WithLevel[*stumpy.Event](logiface.LevelInformational),
		stumpy.WithStumpy(stumpy.WithWriter(w)),
	)
}

// SetWriter redirects all subsequent log output, primarily for tests that
// want to capture or silence logging.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Fault logs an internal fault encountered while evaluating a slot chain.
// Per the fail-open policy, the caller must still admit the request; this
// function only records the occurrence.
func Fault(resource, msg string, err error) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	b := l.Info().Str(`resource`, resource)
	if err != nil {
		b = b.Err(err)
	}
	b.Log(msg)
}

// Warn logs a recoverable protocol violation, such as an entry pairing
// error, after the best-effort unwind has already happened.
func Warn(resource, msg string, err error) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	b := l.Build(logiface.LevelWarning).Str(`resource`, resource)
	if err != nil {
		b = b.Err(err)
	}
	b.Log(msg)
}
