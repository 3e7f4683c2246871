package payment

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to pay")
	ErrInvalidAmount       = errors.New("payment amount must be positive")
	ErrRenderInProgress    = errors.New("payment buttons are already being rendered")
	ErrSDKUnavailable      = errors.New("payment sdk unavailable")
	ErrProviderUnavailable = errors.New("payment provider not configured")
	ErrNotCompleted        = errors.New("payment was not completed")
	ErrPersistTimeout      = errors.New("order store write timed out")
)
