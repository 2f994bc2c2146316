// Package checkpoint decorates errors with the location they passed through.
// A checkpoint keeps two errors: the kind it was raised with and the cause it wraps.
// Both stay reachable by errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err by a checkpoint carrying only the caller location.
// It returns nil if err == nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap decorates prev with the kind err. It returns nil if prev == nil.
//
//	var ErrSomethingSpecialWentWrong = errors.New("a very bad error")
//
//	func someFunction() error {
//		err := somethingOtherThatThrowsErrors()
//		return checkpoint.Wrap(err, ErrSomethingSpecialWentWrong)
//	}
//
// errors.Is works for ErrSomethingSpecialWentWrong and for whatever
// somethingOtherThatThrowsErrors returned.
func Wrap(prev, err error) error {
	if prev == nil || prev == io.EOF {
		return prev
	}

	return newCheckpoint(err, prev)
}

// Wrapf creates a new checkpoint of the given kind with a formatted detail message.
// The detail usually names the offending value:
//
//	return checkpoint.Wrapf(ErrInvalidCluster, "cluster %d", c)
//
// %w verbs in format are honored, so a cause can be attached as well.
func Wrapf(kind error, format string, args ...interface{}) error {
	return newCheckpoint(kind, fmt.Errorf(format, args...))
}

func newCheckpoint(err, prev error) *checkpoint {
	// Skip newCheckpoint and the exported function.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	var b strings.Builder
	if e.callerOk {
		fmt.Fprintf(&b, "%s:%d: ", e.file, e.line)
	}

	switch {
	case e.err != nil && e.prev != nil:
		fmt.Fprintf(&b, "%v: %v", e.err, e.prev)
	case e.err != nil:
		b.WriteString(e.err.Error())
	case e.prev != nil:
		b.WriteString(e.prev.Error())
	}

	return b.String()
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
