package vault

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrInvalidAddress   = errors.New("invalid_address")
	ErrUnknownSymbol    = errors.New("unknown_symbol")
	ErrPriceUnavailable = errors.New("price_unavailable")
)
