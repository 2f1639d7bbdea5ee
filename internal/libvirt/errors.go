package libvirt

import (
	"errors"
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// ErrClosed is returned by every operation on a closed connection.
var ErrClosed = errors.New("connection is closed")

// codeNoSupport is libvirt's VIR_ERR_NO_SUPPORT.
const codeNoSupport = 3

// notFoundCodes are the virErrorNumber values for a missing object.
var notFoundCodes = map[uint32]bool{
	42: true, // VIR_ERR_NO_DOMAIN
	43: true, // VIR_ERR_NO_NETWORK
	49: true, // VIR_ERR_NO_STORAGE_POOL
	50: true, // VIR_ERR_NO_STORAGE_VOL
	53: true, // VIR_ERR_NO_NODE_DEVICE
	57: true, // VIR_ERR_NO_INTERFACE
	62: true, // VIR_ERR_NO_NWFILTER
	66: true, // VIR_ERR_NO_SECRET
	72: true, // VIR_ERR_NO_DOMAIN_SNAPSHOT
}

// Kind classifies a binding error by the stage that failed.
type Kind int

const (
	// KindConnection means the connection could not be opened or is closed.
	KindConnection Kind = iota + 1
	// KindRetrieve means a read-only libvirt query failed.
	KindRetrieve
	// KindDefinition means defining or creating an object from XML failed.
	KindDefinition
	// KindOperation means an action on an existing object failed.
	KindOperation
	// KindArgument means the binding rejected an argument before calling libvirt.
	KindArgument
	// KindNoSupport means the hypervisor driver does not implement the call.
	KindNoSupport
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindRetrieve:
		return "retrieve error"
	case KindDefinition:
		return "definition error"
	case KindOperation:
		return "operation error"
	case KindArgument:
		return "invalid argument"
	case KindNoSupport:
		return "not supported"
	default:
		return "error"
	}
}

// Error is returned by every failing binding call.
type Error struct {
	Kind Kind

	// Func is the libvirt entry point that failed, e.g. "virDomainGetInfo".
	Func string

	// Code and Message come from libvirtd when the failure was remote.
	Code    uint32
	Message string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Func == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: call to %s failed: %s", e.Kind, e.Func, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error for a failed libvirt call, lifting the code and
// message from the go-libvirt error when there is one.
func newError(kind Kind, fn string, err error) *Error {
	e := &Error{Kind: kind, Func: fn, Err: err}

	var lverr libvirt.Error
	if errors.As(err, &lverr) {
		e.Code = lverr.Code
		e.Message = lverr.Message
		if lverr.Code == codeNoSupport {
			e.Kind = KindNoSupport
		}
	}

	return e
}

// NewError wraps err from the libvirt entry point fn. It lets packages
// that call go-libvirt directly report failures the same way Conn does.
func NewError(kind Kind, fn string, err error) error {
	if err == nil {
		return nil
	}
	return newError(kind, fn, err)
}

func retrieveError(fn string, err error) error {
	return newError(KindRetrieve, fn, err)
}

func definitionError(fn string, err error) error {
	return newError(KindDefinition, fn, err)
}

func operationError(fn string, err error) error {
	return newError(KindOperation, fn, err)
}

func argumentError(fn string, format string, args ...any) error {
	return &Error{Kind: KindArgument, Func: fn, Message: fmt.Sprintf(format, args...)}
}

func closedError(fn string) error {
	return &Error{Kind: KindConnection, Func: fn, Err: ErrClosed}
}

// IsNotFound reports whether err means the requested domain, network,
// pool, volume, secret or other object does not exist.
func IsNotFound(err error) bool {
	var lverr libvirt.Error
	return errors.As(err, &lverr) && notFoundCodes[lverr.Code]
}

// IsKind reports whether err is a binding Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
