package models

import "errors"

// Domain errors surfaced by the listing, join and draw paths. Handlers map
// these to HTTP status codes; anything not listed here is treated as a
// transient store error and is safe to retry.
var (
	ErrListingNotFound          = errors.New("listing not found")
	ErrListingNotActive         = errors.New("listing is not active")
	ErrListingFull              = errors.New("listing is full")
	ErrAlreadyJoined            = errors.New("user has already joined this listing")
	ErrDrawNotDue               = errors.New("listing has not reached its end time")
	ErrNoParticipants           = errors.New("listing has no participants")
	ErrInsufficientParticipants = errors.New("not enough participants for the configured winner count")
	ErrNotSeller                = errors.New("user is not a seller")
)
