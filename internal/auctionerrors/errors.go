package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrBidNotFound      = errors.New("bid not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// business logic errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("operation not permitted for caller")
	ErrInvalidState      = errors.New("operation illegal in current auction state")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrTooEarly          = errors.New("auction end date has not passed")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrSelfBid           = errors.New("cannot bid on own auction")
	ErrAuctionExpired    = errors.New("auction has ended")
)

// transport-level errors
var (
	ErrUnauthenticated = errors.New("caller not authenticated")
)
