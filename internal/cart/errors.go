package cart

import "errors"

var (
	ErrInvalidItem     = errors.New("cart item has no id")
	ErrUnknownCommand  = errors.New("unknown cart command")
	// ErrCartUnavailable means the stored cart could not be read, so no change was written.
	ErrCartUnavailable = errors.New("cart is temporarily unavailable")
)
