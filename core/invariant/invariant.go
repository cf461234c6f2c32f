// Package invariant provides contract assertions for the template parser.
//
// Violations are programming errors in the parser or in a grammar that drives
// the builder, never malformed template input. Malformed input is reported as
// diagnostics on the tree; these checks panic.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Example:
//
//	func (b *Builder) Done(m Marker, kind NodeKind) {
//	    invariant.Precondition(b.isOpen(m), "marker %d is not open", m.id)
//	    // ...
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks internal consistency during execution, typically cursor
// progress inside a loop.
//
// Example:
//
//	prev := b.Pos()
//	for !b.EOF() {
//	    p.attribute()
//	    invariant.Invariant(b.Pos() > prev, "attribute loop stuck at %d", prev)
//	    prev = b.Pos()
//	}
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils.
func NotNil(value any, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// InRange panics if value is outside [minVal, maxVal].
func InRange(value, minVal, maxVal int, name string) {
	if value < minVal || value > maxVal {
		fail("PRECONDITION", "%s must be in range [%d, %d], got %d",
			name, minVal, maxVal, value)
	}
}

// ExpectNoError panics if err is not nil. Use it for operations over static
// data that cannot fail unless the program itself is wrong, such as compiling
// an embedded schema.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// Unreachable panics unconditionally. Use it in the default arm of a switch
// over a closed enumeration.
func Unreachable(format string, args ...any) {
	fail("UNREACHABLE", format, args...)
}

// fail panics with a formatted message including the caller location.
func fail(kind, format string, args ...any) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
