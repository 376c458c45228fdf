// Package common defines the error taxonomy shared by the wallet and upload
// services. Callers match kinds with errors.Is against the sentinels below or
// extract them with KindOf.
package common

import (
	"errors"
)

// Kind classifies a failure surfaced to the UI layer.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindStorage             Kind = "StorageError"
	KindDecryption          Kind = "DecryptionError"
	KindIdentityMismatch    Kind = "IdentityMismatch"
	KindConnection          Kind = "ConnectionError"
	KindUnsupportedPlatform Kind = "UnsupportedPlatform"
	KindGeneration          Kind = "GenerationError"

	KindNoFile                Kind = "NoFileError"
	KindNoWallet              Kind = "NoWalletError"
	KindClientNotReady        Kind = "ClientNotReadyError"
	KindInvalidSponsorAddress Kind = "InvalidSponsorAddressError"
	KindSigning               Kind = "SigningError"
	KindNetwork               Kind = "NetworkError"
	KindInsufficientBalance   Kind = "InsufficientBalanceError"
	KindUpload                Kind = "UploadError"
	KindMissingResult         Kind = "MissingResultError"
	KindAlreadyInProgress     Kind = "AlreadyInProgressError"
)

// Error is the structured {kind, message} value handed to the UI. Err keeps
// the verbatim cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError builds an *Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind, so the
// sentinels below work with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrStorage             = &Error{Kind: KindStorage}
	ErrDecryption          = &Error{Kind: KindDecryption}
	ErrIdentityMismatch    = &Error{Kind: KindIdentityMismatch}
	ErrConnection          = &Error{Kind: KindConnection}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
	ErrGeneration          = &Error{Kind: KindGeneration}

	ErrNoFile                = &Error{Kind: KindNoFile}
	ErrNoWallet              = &Error{Kind: KindNoWallet}
	ErrClientNotReady        = &Error{Kind: KindClientNotReady}
	ErrInvalidSponsorAddress = &Error{Kind: KindInvalidSponsorAddress}
	ErrSigning               = &Error{Kind: KindSigning}
	ErrNetwork               = &Error{Kind: KindNetwork}
	ErrInsufficientBalance   = &Error{Kind: KindInsufficientBalance}
	ErrUpload                = &Error{Kind: KindUpload}
	ErrMissingResult         = &Error{Kind: KindMissingResult}
	ErrAlreadyInProgress     = &Error{Kind: KindAlreadyInProgress}
)

var (
	// ErrInvalidToken is returned for federated tokens that cannot be decoded
	// or lack the subject/expiry claims.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for tokens whose expiry claim has passed.
	ErrTokenExpired = errors.New("token expired")
)
