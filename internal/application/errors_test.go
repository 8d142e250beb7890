package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("name", "name is required")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "unauthorized", err: ErrUnauthorized, want: "unauthorized"},
		{name: "not found", err: ErrNotFound, want: "not_found"},
		{name: "already exists", err: ErrAlreadyExists, want: "already_exists"},
		{name: "validation", err: vErr, want: "validation"},
		{name: "wrapped validation", err: fmt.Errorf("session 2: %w", vErr), want: "validation"},
		{name: "unexpected", err: errors.New("boom"), want: "unexpected"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatal("empty ValidationError must report no errors")
	}
	vErr.add("name", "name is required")
	if !vErr.HasErrors() {
		t.Fatal("populated ValidationError must report errors")
	}
}
