package engine

import (
	"cosmossdk.io/errors"
)

// Validation
var (
	ErrInvalidPrice         = errors.Register("matchbook/engine", 1, "invalid price")
	ErrInvalidTickSize      = errors.Register("matchbook/engine", 2, "price is not a multiple of tick size")
	ErrInvalidQuantity      = errors.Register("matchbook/engine", 3, "invalid quantity")
	ErrOrderTooSmall        = errors.Register("matchbook/engine", 4, "quantity below minimum order size")
	ErrInvalidClientOrderId = errors.Register("matchbook/engine", 5, "invalid client order id")
)

// Authorization
var (
	ErrUnauthorized = errors.Register("matchbook/engine", 20, "signer is not owner or delegate")
	ErrNotOwner     = errors.Register("matchbook/engine", 21, "signer is not the account owner")
)

// State
var (
	ErrMarketNotActive = errors.Register("matchbook/engine", 40, "market does not allow this operation in its current status")
	ErrMarketClosed    = errors.Register("matchbook/engine", 41, "market is closed")
	ErrOrderNotFound   = errors.Register("matchbook/engine", 42, "order not found")
	ErrTooManyOrders   = errors.Register("matchbook/engine", 43, "open orders slot array is full")
	ErrEventQueueFull  = errors.Register("matchbook/engine", 44, "event queue is full")
	ErrTreeFull        = errors.Register("matchbook/engine", 45, "book side node slab is full")
)

// Economic
var (
	ErrInsufficientFunds     = errors.Register("matchbook/engine", 60, "insufficient free balance")
	ErrPostOnlyWouldCross    = errors.Register("matchbook/engine", 61, "post-only order would cross the book")
	ErrFillOrKillCannotFill  = errors.Register("matchbook/engine", 62, "fill-or-kill order cannot be fully filled")
	ErrBalanceOverflow       = errors.Register("matchbook/engine", 63, "balance operation would overflow")
)

// Arithmetic
var (
	ErrArithmeticOverflow = errors.Register("matchbook/engine", 80, "arithmetic overflow")
)

// Decode (registered for the taxonomy; no engine handler returns it)
var (
	ErrInvalidData = errors.Register("matchbook/engine", 100, "invalid data")
)
