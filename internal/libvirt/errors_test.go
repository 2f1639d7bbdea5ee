package libvirt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/digitalocean/go-libvirt"
)

func TestNewError_LiftsLibvirtDetails(t *testing.T) {
	err := retrieveError("virDomainLookupByName", notFoundError())

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Kind != KindRetrieve {
		t.Errorf("Kind = %v, want %v", e.Kind, KindRetrieve)
	}
	if e.Code != 42 {
		t.Errorf("Code = %d, want 42", e.Code)
	}
	if e.Message != "Domain not found" {
		t.Errorf("Message = %q", e.Message)
	}
	want := "retrieve error: call to virDomainLookupByName failed: Domain not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to see through the wrapper")
	}
}

func TestNewError_NoSupport(t *testing.T) {
	err := operationError("virDomainInjectNMI", libvirt.Error{Code: codeNoSupport, Message: "this function is not supported"})
	if !IsKind(err, KindNoSupport) {
		t.Fatalf("expected not supported kind, got %v", err)
	}
}

func TestNewError_PlainError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := operationError("virDomainSuspend", cause)

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be unwrappable")
	}
	want := "operation error: call to virDomainSuspend failed: connection reset by peer"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestArgumentError(t *testing.T) {
	err := argumentError("virDomainSendKey", "between 1 and %d keycodes are required, got %d", 16, 0)
	want := "invalid argument: call to virDomainSendKey failed: between 1 and 16 keycodes are required, got 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noFunc := argumentError("", "unknown event %q", "boot")
	if got := noFunc.Error(); got != `invalid argument: unknown event "boot"` {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("inspect web01: %w", definitionError("virDomainDefineXML", errors.New("bad xml")))

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"wrapped match", wrapped, KindDefinition, true},
		{"wrapped mismatch", wrapped, KindOperation, false},
		{"nil", nil, KindRetrieve, false},
		{"foreign error", errors.New("boom"), KindRetrieve, false},
		{"closed", closedError("virConnectGetType"), KindConnection, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound_Nil(t *testing.T) {
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) should be false")
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindConnection: "connection error",
		KindRetrieve:   "retrieve error",
		KindDefinition: "definition error",
		KindOperation:  "operation error",
		KindArgument:   "invalid argument",
		KindNoSupport:  "not supported",
		Kind(99):       "error",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestNewError(t *testing.T) {
	if err := NewError(KindRetrieve, "virStoragePoolGetInfo", nil); err != nil {
		t.Errorf("NewError(nil) = %v, want nil", err)
	}
	err := NewError(KindOperation, "virStoragePoolDestroy", libvirt.Error{Code: 49, Message: "Storage pool not found"})
	if !IsKind(err, KindOperation) || !IsNotFound(err) {
		t.Errorf("NewError() = %v, want a not-found operation error", err)
	}
}
