package copick

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{NotFoundf("run %q", "TS_001"), NotFound},
		{InvalidPathf("bad segment"), InvalidPath},
		{MalformedBodyf("short frame"), MalformedBody},
		{ReadOnlyf("tomogram wbp"), ReadOnlyViolation},
		{BackendErr(fmt.Errorf("disk full"), "put chunk"), BackendFailure},
		{fmt.Errorf("plain"), BackendFailure},
		{fmt.Errorf("wrapped: %w", NotFoundf("chunk")), NotFound},
	}
	for i, tc := range tests {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("test %d: expected kind %s, got %s for %v\n", i, tc.kind, got, tc.err)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := BackendErr(cause, "get %s", "0/0/0")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be found in %v\n", err)
	}
	if err.Error() != "get 0/0/0: connection reset" {
		t.Errorf("bad error string: %s\n", err)
	}
	if BackendErr(nil, "nothing") != nil {
		t.Errorf("expected nil error from BackendErr(nil)\n")
	}
	if !errors.Is(NotFoundf("x"), &Error{Kind: NotFound}) {
		t.Errorf("expected errors.Is match on kind\n")
	}
	if errors.Is(NotFoundf("x"), &Error{Kind: InvalidPath}) {
		t.Errorf("unexpected errors.Is match across kinds\n")
	}
}
