package client

import "errors"

var (
	// ErrInsufficientBalance is returned when the upload service refuses
	// payment for an item.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNetwork wraps transport-level failures (DNS, refused, reset, timeout).
	ErrNetwork = errors.New("network error")
	// ErrNoSigner is returned when a client is constructed without a wallet.
	ErrNoSigner = errors.New("no signer")
)
