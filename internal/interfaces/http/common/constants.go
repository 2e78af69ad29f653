package common

import "time"

const (
	// MaxFormBody limits feedback form bodies.
	MaxFormBody = 64 << 10
	// MaxAPILimit caps the page size of the JSON review listing.
	MaxAPILimit = 50
	// RequestTimeout bounds the work a single handler does against its dependencies.
	RequestTimeout = 5 * time.Second
)
