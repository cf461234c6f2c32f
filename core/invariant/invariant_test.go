package invariant_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aledsdavies/svelteparse/core/invariant"
)

// expectPanic runs fn and returns the recovered panic message.
func expectPanic(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg = fmt.Sprintf("%v", r)
	}()
	fn()
	return ""
}

func TestPreconditionPass(t *testing.T) {
	invariant.Precondition(true, "this should pass")
	invariant.Precondition(len("{#if x}") > 0, "source not empty")
}

func TestPreconditionFail(t *testing.T) {
	msg := expectPanic(t, func() {
		invariant.Precondition(false, "marker %d is not open", 7)
	})
	if !strings.Contains(msg, "PRECONDITION VIOLATION") {
		t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
	}
	if !strings.Contains(msg, "marker 7 is not open") {
		t.Errorf("expected formatted message, got: %s", msg)
	}
	if !strings.Contains(msg, "at ") {
		t.Errorf("expected caller location, got: %s", msg)
	}
}

func TestPostconditionFail(t *testing.T) {
	msg := expectPanic(t, func() {
		invariant.Postcondition(false, "tree must have a root")
	})
	if !strings.Contains(msg, "POSTCONDITION VIOLATION") {
		t.Errorf("expected POSTCONDITION VIOLATION, got: %s", msg)
	}
}

func TestInvariantFail(t *testing.T) {
	msg := expectPanic(t, func() {
		invariant.Invariant(false, "cursor stuck at %d", 3)
	})
	if !strings.Contains(msg, "INVARIANT VIOLATION: cursor stuck at 3") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestNotNil(t *testing.T) {
	invariant.NotNil(&struct{}{}, "value")

	var typed *strings.Builder
	tests := []struct {
		name  string
		value any
	}{
		{"untyped nil", nil},
		{"typed nil pointer", typed},
		{"nil slice", []int(nil)},
		{"nil func", (func())(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := expectPanic(t, func() { invariant.NotNil(tt.value, "grammar") })
			if !strings.Contains(msg, "grammar must not be nil") {
				t.Errorf("unexpected message: %s", msg)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	invariant.InRange(0, 0, 10, "depth")
	invariant.InRange(10, 0, 10, "depth")

	msg := expectPanic(t, func() { invariant.InRange(11, 0, 10, "depth") })
	if !strings.Contains(msg, "depth must be in range [0, 10], got 11") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestExpectNoError(t *testing.T) {
	invariant.ExpectNoError(nil, "schema compile")

	msg := expectPanic(t, func() { invariant.ExpectNoError(errors.New("boom"), "schema compile") })
	if !strings.Contains(msg, "schema compile must not fail: boom") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestUnreachable(t *testing.T) {
	msg := expectPanic(t, func() { invariant.Unreachable("unknown block family %d", 9) })
	if !strings.Contains(msg, "UNREACHABLE VIOLATION: unknown block family 9") {
		t.Errorf("unexpected message: %s", msg)
	}
}
