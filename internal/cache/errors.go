package cache

import "errors"

var (
	// ErrNilFetcher is returned by constructors when no data source is given.
	ErrNilFetcher = errors.New("cache: nil fetcher")

	// ErrInvalidCapacity is returned by constructors for a negative capacity.
	ErrInvalidCapacity = errors.New("cache: negative capacity")
)
