package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrNoBids          = errors.New("no bids found for product")
	ErrStaleBidState   = errors.New("bid state changed concurrently")
)

// business logic errors
var (
	ErrInvalidBid   = errors.New("invalid bid")
	ErrBidTooLow    = errors.New("bid amount too low")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// IsInvalidBid reports whether err is a rejected bid amount of any kind.
func IsInvalidBid(err error) bool {
	return errors.Is(err, ErrInvalidBid) || errors.Is(err, ErrBidTooLow)
}
