package status

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindSecurity   Kind = "security"
	KindUpstream   Kind = "upstream"
	KindInternal   Kind = "internal"
)

// Error is a caller-visible failure. Message is safe to return to clients,
// Err carries the internal cause for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so that wrapped copies of a sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "NotFound", Message: "Resource not found"}
	ErrEventNotFound      = &Error{Kind: KindNotFound, Code: "NotFound", Message: "Event not found"}
	ErrPaymentNotFound    = &Error{Kind: KindNotFound, Code: "NotFound", Message: "Payment not found"}
	ErrRegistrationClosed = &Error{Kind: KindConflict, Code: "RegistrationClosed", Message: "Registrations are closed for this event"}
	ErrAlreadyRegistered  = &Error{Kind: KindConflict, Code: "AlreadyRegistered", Message: "You have already registered and paid for this event"}
	ErrAlreadyFinalized   = &Error{Kind: KindConflict, Code: "AlreadyFinalized", Message: "Payment already verified"}
	ErrPaymentClosed      = &Error{Kind: KindConflict, Code: "PaymentClosed", Message: "Payment can no longer be verified"}
	ErrNotReissuable      = &Error{Kind: KindConflict, Code: "NotReissuable", Message: "Registration is not awaiting a ticket"}
	ErrValidation         = &Error{Kind: KindValidation, Code: "ValidationError", Message: "Missing payment details"}
	ErrInvalidSignature   = &Error{Kind: KindSecurity, Code: "InvalidSignature", Message: "Invalid payment signature"}
	ErrInvalidTicket      = &Error{Kind: KindSecurity, Code: "InvalidTicket", Message: "Invalid or expired ticket"}
	ErrUpstream           = &Error{Kind: KindUpstream, Code: "UpstreamError", Message: "Failed to create payment order"}
	ErrOrderStore         = &Error{Kind: KindInternal, Code: "InternalError", Message: "Failed to create payment order"}
	ErrInternal           = &Error{Kind: KindInternal, Code: "InternalError", Message: "Verification failed"}
)

// Wrap attaches cause to a copy of sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
