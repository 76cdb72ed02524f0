package domain

import "errors"

var (
	// ErrSearchUnavailable signals that the search backend could not serve a query.
	ErrSearchUnavailable = errors.New("search service unavailable")
	// ErrListingNotFound signals a missing listing document.
	ErrListingNotFound = errors.New("listing not found")
	// ErrInvalidListing signals a listing document that fails validation.
	ErrInvalidListing = errors.New("invalid listing")
)
