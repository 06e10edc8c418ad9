package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("queue %s not found", "q1")); got != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", got)
	}
	if got := KindOf(Conflict("queue is at maximum capacity")); got != KindConflict {
		t.Fatalf("expected KindConflict, got %v", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected KindInternal for plain errors, got %v", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("expected KindUnknown for nil, got %v", got)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := Forbidden("staff role required")
	outer := fmt.Errorf("add customer: %w", inner)

	if got := KindOf(outer); got != KindForbidden {
		t.Fatalf("expected KindForbidden through wrapping, got %v", got)
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, KindInternal, "notify customer")

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("expected KindInternal, got %v", KindOf(err))
	}
	if err.Error() != "notify customer: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, KindInternal, "x"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
