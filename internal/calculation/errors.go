package calculation

import "errors"

var (
	// ErrReferenceDataMissing means a ticker has no yield or schedule entry.
	// It signals a code/data mismatch rather than bad user input.
	ErrReferenceDataMissing = errors.New("reference data missing")

	// ErrNoPriceData means no ticker in the basket returned usable prices.
	ErrNoPriceData = errors.New("no price data available")
)
