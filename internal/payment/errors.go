package payment

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies payment errors so the endpoint layer can map them to HTTP
// statuses without string matching.
type Kind string

const (
	// KindConfiguration marks a missing or unusable provider credential.
	KindConfiguration Kind = "configuration"
	// KindValidation marks missing or malformed request fields.
	KindValidation Kind = "validation"
	// KindProvider marks a transport or HTTP failure talking to a provider.
	KindProvider Kind = "provider"
	// KindNotFound marks a reference or order that could not be resolved.
	KindNotFound Kind = "not_found"
	// KindAmountMismatch marks a verified amount that differs from the order total.
	KindAmountMismatch Kind = "amount_mismatch"
	// KindAlreadyInitialized marks a duplicate initialize on an order with an
	// active payment reference.
	KindAlreadyInitialized Kind = "already_initialized"
)

// Error carries a kind and a message that is safe to expose to API clients.
// Raw provider error text is included for provider errors since manual
// reconciliation depends on it; internal errors are never serialised.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatus returns the status code the endpoint layer responds with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAmountMismatch, KindAlreadyInitialized:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable error code.
func (e *Error) Code() string {
	switch e.Kind {
	case KindConfiguration:
		return "PAYMENT_NOT_CONFIGURED"
	case KindValidation:
		return "BAD_REQUEST"
	case KindProvider:
		return "PROVIDER_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindAmountMismatch:
		return "AMOUNT_MISMATCH"
	case KindAlreadyInitialized:
		return "ALREADY_INITIALIZED"
	default:
		return "INTERNAL"
	}
}

// IsKind reports whether err is a payment error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

func configurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func providerError(message string, err error) *Error {
	return &Error{Kind: KindProvider, Message: message, Err: err}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func amountMismatchError(message string) *Error {
	return &Error{Kind: KindAmountMismatch, Message: message}
}

func alreadyInitializedError(message string) *Error {
	return &Error{Kind: KindAlreadyInitialized, Message: message}
}
