package relay

import (
	"fmt"

	"github.com/juju/errors"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindStartupFailure
	KindMalformedRecord
	KindUplinkFailure
	KindMalformedResponse
	KindLinkFailure
)

func (k Kind) String() string {
	switch k {
	case KindStartupFailure:
		return "StartupFailure"
	case KindMalformedRecord:
		return "MalformedRecord"
	case KindUplinkFailure:
		return "UplinkFailure"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindLinkFailure:
		return "LinkFailure"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Fatal kinds escape the per-frame boundary and stop the relay.
// Unknown errors are fatal too.
func (k Kind) Fatal() bool {
	switch k {
	case KindMalformedRecord, KindUplinkFailure, KindMalformedResponse:
		return false
	}
	return true
}

// Error must not implement Cause(), juju errors.Cause() would skip it.
type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf sees through juju Trace/Annotate.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

func IsFatal(err error) bool { return err != nil && KindOf(err).Fatal() }

// StatusError reports a response status other than 200.
type StatusError struct {
	Code   int
	Status string
}

func (e StatusError) Error() string { return fmt.Sprintf("unexpected response status=%s", e.Status) }

var ErrFrameTooLong = errors.New("frame too long")
