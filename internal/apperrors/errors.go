package apperrors

import "errors"

// Kind groups failures so the boundary layer can map them to a status
// without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: malformed input, rejected before any state mutation.
	KindValidation
	// KindConflict: state-dependent rejection (stock, duplicates, missing
	// references); nothing was partially applied.
	KindConflict
	// KindUpstream: the gateway or another dependency failed; callers decide
	// whether to retry.
	KindUpstream
	// KindAuth: token failed a check. Deliberately uniform, the caller never
	// learns which check tripped.
	KindAuth
)

var (
	ErrInvalidToken = &Error{Kind: KindAuth, Message: "invalid token"}

	ErrInsufficientStock = &Error{Kind: KindConflict, Message: "insufficient stock"}
	ErrProductNotFound   = &Error{Kind: KindConflict, Message: "product does not exist"}
	ErrCartNotFound      = &Error{Kind: KindConflict, Message: "no unpaid cart for customer"}
	ErrCartItemNotFound  = &Error{Kind: KindConflict, Message: "product is not in the cart"}
	ErrPaymentNotFound   = &Error{Kind: KindConflict, Message: "unknown transaction reference"}
	ErrBankNotFound      = &Error{Kind: KindConflict, Message: "no bank account submitted"}
	ErrNoVendorAccount   = &Error{Kind: KindConflict, Message: "vendor has no usable settlement account"}
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause while keeping the kind and public message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Upstream marks a dependency failure on the payment-critical path.
func Upstream(message string, cause error) *Error {
	return Wrap(KindUpstream, message, cause)
}

// KindOf classifies any error; wrapped and plain errors fall back to
// KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}
