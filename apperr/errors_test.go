package apperr

import (
	"errors"
	"testing"
)

func TestErrorIsSentinel(t *testing.T) {
	err := Newf(CodeBoundsViolation, "size %d exceeds capacity %d", 2048, 1024)
	if !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("expected errors.Is to match ErrBoundsViolation, got %v", err)
	}
	if errors.Is(err, ErrNotReady) {
		t.Fatalf("did not expect match against ErrNotReady")
	}
}

func TestErrorWithContext(t *testing.T) {
	err := New(CodeSetupFailure, "mmap failed").WithContext("name", "/sensor_channel")
	want := "setup failure: mmap failed (context: map[name:/sensor_channel])"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
