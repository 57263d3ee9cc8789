// Package verify decides whether the user solved a challenge by watching
// editor events for a bounded time.
package verify

import (
	"errors"
	"time"
)

var (
	// ErrTargetFileMissing means the modification target could not be opened.
	ErrTargetFileMissing = errors.New("target file missing")

	// ErrTimeout means the verification window elapsed.
	ErrTimeout = errors.New("verification timed out")
)

// Result is the outcome of one verification. Err is set on failures that
// have a cause beyond the user not finishing in time.
type Result struct {
	Success bool
	Message string
	Details string
	Err     error
}

// Outcome labels r for metrics and logs.
func (r Result) Outcome() string {
	switch {
	case r.Success:
		return "success"
	case errors.Is(r.Err, ErrTimeout):
		return "timeout"
	case errors.Is(r.Err, ErrTargetFileMissing):
		return "missing_file"
	default:
		return "failure"
	}
}

// Succeeded builds a success result.
func Succeeded(message, details string) Result {
	return Result{Success: true, Message: message, Details: details}
}

// Failed builds a failure result.
func Failed(message, details string, err error) Result {
	return Result{Success: false, Message: message, Details: details, Err: err}
}

func timedOut() Result {
	return Failed(MsgTimeLimit, MsgTimeLimitDetail, ErrTimeout)
}

// Standard failure messages.
const (
	MsgTimeLimit       = "Time limit exceeded"
	MsgTimeLimitDetail = "Please try again or skip to the next challenge"
	MsgOpenFailed      = "Could not open target file"
	MsgOpenFailedHint  = "Please check if the file exists"
	MsgBadPattern      = "Target pattern is not a valid regular expression"
)

// Default verification windows.
const (
	DefaultNavigationTimeout   = 30 * time.Second
	DefaultModificationTimeout = 60 * time.Second
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

// SystemAfterFunc schedules f on the runtime's timer.
func SystemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a verifier.
type Options struct {
	// Timeout is the verification window. Zero uses the verifier default.
	Timeout time.Duration

	// AfterFunc schedules the timeout. Nil uses SystemAfterFunc.
	AfterFunc AfterFunc
}

func (o Options) withDefaults(timeout time.Duration) Options {
	if o.Timeout <= 0 {
		o.Timeout = timeout
	}
	if o.AfterFunc == nil {
		o.AfterFunc = SystemAfterFunc
	}
	return o
}
