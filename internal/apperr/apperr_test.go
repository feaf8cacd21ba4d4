package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"alcyxob/nutrition-app/internal/apperr"
)

var errLocked = apperr.Precondition("LOCKED", "plan is locked")

func TestIsMatchesOnTypeAndCode(t *testing.T) {
	t.Parallel()

	withCtx := errLocked.With("slot", "lunch")
	if !errors.Is(withCtx, errLocked) {
		t.Fatalf("expected context copy to match sentinel")
	}
	if len(errLocked.Context) != 0 {
		t.Fatalf("sentinel context mutated: %v", errLocked.Context)
	}

	other := apperr.Precondition("OTHER", "plan is locked")
	if errors.Is(other, errLocked) {
		t.Fatalf("different code must not match")
	}

	wrapped := fmt.Errorf("save day plan: %w", withCtx)
	if !errors.Is(wrapped, errLocked) {
		t.Fatalf("expected fmt-wrapped error to match sentinel")
	}
	if !apperr.IsPrecondition(wrapped) {
		t.Fatalf("expected precondition type through wrap")
	}
}

func TestTypeOfDefaultsToInternal(t *testing.T) {
	t.Parallel()

	if got := apperr.TypeOf(errors.New("boom")); got != apperr.TypeInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if apperr.IsValidation(nil) {
		t.Fatalf("nil is not a validation error")
	}
	cause := errors.New("socket closed")
	err := apperr.Wrap(cause, apperr.TypeInternal, "DB", "database operation failed")
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to expose the cause")
	}
}
