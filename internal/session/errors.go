package session

import (
	"errors"
	"fmt"

	"github.com/BioHazard786/camdrop/internal/capture"
)

var (
	ErrCameraRequired        = errors.New("camera is not started")
	ErrRoomCodeRequired      = errors.New("room code is empty")
	ErrNoConnection          = errors.New("no room has been created or joined")
	ErrAlreadyInRoom         = errors.New("session already has a connection")
	ErrPermissionBlocked     = errors.New("camera permission was denied")
	ErrUnexpectedDescription = errors.New("unexpected description type")
	ErrStopped               = errors.New("session stopped during the operation")
	ErrClosed                = errors.New("session closed")
)

// ErrorKind is the user-facing class of a failure
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindCapturePermissionDenied
	KindCaptureDeviceMissing
	KindCaptureDeviceBusy
	KindCaptureOther
	KindNegotiation
	KindPrecondition
)

func (k ErrorKind) String() string {
	switch k {
	case KindCapturePermissionDenied:
		return "capture-permission-denied"
	case KindCaptureDeviceMissing:
		return "capture-device-missing"
	case KindCaptureDeviceBusy:
		return "capture-device-busy"
	case KindCaptureOther:
		return "capture-other"
	case KindNegotiation:
		return "negotiation-parse-or-apply-failure"
	case KindPrecondition:
		return "precondition-not-met"
	default:
		return "none"
	}
}

func captureKind(k capture.ErrorKind) ErrorKind {
	switch k {
	case capture.KindPermissionDenied:
		return KindCapturePermissionDenied
	case capture.KindDeviceNotFound:
		return KindCaptureDeviceMissing
	case capture.KindDeviceBusy:
		return KindCaptureDeviceBusy
	default:
		return KindCaptureOther
	}
}

type Error struct {
	Op      string
	Kind    ErrorKind
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func WrapError(op string, kind ErrorKind, err error, details string) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Details: details}
}

// KindOf returns the kind carried by err, or KindNone.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
