package sales

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("sales: no historical data available")

// Sample is one append-only record of a completed sale. Samples are immutable
// once recorded; the series for a product is grouped by case-insensitive name.
type Sample struct {
	ProductName  string
	Date         time.Time
	QuantitySold float64
	PricePerKg   decimal.Decimal
}

// Store is the read-only view the forecaster consumes. Sales history is
// derived from completed orders by a separate ingestion process; nothing in
// the core writes to it.
type Store interface {
	// Samples returns every recorded sample. An absent or empty backing
	// store yields ErrNoData, never an empty successful result.
	Samples(ctx context.Context) ([]Sample, error)
	// SamplesFor returns the series for one product, matched
	// case-insensitively. No matching samples yields ErrNoData.
	SamplesFor(ctx context.Context, productName string) ([]Sample, error)
}
