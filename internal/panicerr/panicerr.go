// Package panicerr converts abnormal function termination, panics and
// runtime.Goexit, into ordinary error returns.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f in a fresh goroutine and waits for it, returning its
// error. If f panics, the recovered value and its stack come back as an
// error instead of unwinding the caller; if f calls runtime.Goexit, that
// too is reported as an error.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer func() {
			select {
			case errch <- exitError(name):
			default:
				// the happy path already sent
			}
		}()
		defer func() {
			if e := recover(); e != nil {
				pe := panicError{name: name, e: e, stack: debug.Stack()}
				select {
				case errch <- pe:
				default:
				}
			}
		}()
		errch <- f()
	}()
	return <-errch
}

type panicError struct {
	name  string
	e     interface{}
	stack []byte
}

func (pe panicError) Error() string { return fmt.Sprint(pe) }

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.e)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.e)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.e.(error)
	return err
}

type exitError string

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

// IsPanic returns true if err indicates a recovered panic.
func IsPanic(err error) bool {
	var pe panicError
	return errors.As(err, &pe)
}

// IsExit returns true if err indicates a recovered goroutine exit.
func IsExit(err error) bool {
	var xe exitError
	return errors.As(err, &xe)
}

// PanicStack returns the captured stacktrace if err is a recovered panic.
func PanicStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
