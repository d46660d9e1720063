package logic

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDevice: chip missing or unopenable, or pin offset invalid.
	KindDevice
	// KindClaim: the host rejected the line request.
	KindClaim
	// KindIO: get/set value failed on a claimed line.
	KindIO
	// KindRequest: malformed, unsupported or oversized request.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "DeviceError"
	case KindClaim:
		return "ClaimError"
	case KindIO:
		return "IoError"
	case KindRequest:
		return "RequestError"
	}
	return "UnknownError"
}

// Error is a classified failure. Its message is the wrapped error's text,
// so the description reported to clients is the host's own.
type Error struct {
	Kind Kind
	Key  Key
	Err  error
}

// NewError wraps err with kind and key. A nil err yields nil.
func NewError(kind Kind, key Key, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Key: key, Err: err}
}

// RequestError returns a KindRequest error with a formatted message.
func RequestError(format string, args ...any) error {
	return &Error{Kind: KindRequest, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
