package forecast

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/krishibazaar/marketplace/internal/domain/sales"
)

// TargetDateLayout renders the human-readable label on batch results.
const TargetDateLayout = "January 2, 2006"

// Forecaster fits one quantity model and one price model per product from the
// historical sales store and predicts both at a single target date. It is
// purely functional over the store contents and the target date; nothing is
// cached between calls.
type Forecaster struct {
	store sales.Store
}

func New(store sales.Store) *Forecaster {
	return &Forecaster{store: store}
}

// ProductForecast is one per-product result. Err is set on a per-product
// failure (insufficient history, fit failure) without aborting the batch.
type ProductForecast struct {
	Name              string
	PredictedQuantity int
	PredictedPrice    decimal.Decimal
	Err               error
}

// BatchResult is the outcome of forecasting every product in the store.
type BatchResult struct {
	TargetDateLabel string
	Products        []ProductForecast
}

// ForecastAll predicts quantity and price for every distinct product name in
// the store at the target date, ordered by name. An absent or empty store
// yields sales.ErrNoData.
func (f *Forecaster) ForecastAll(ctx context.Context, target time.Time) (*BatchResult, error) {
	samples, err := f.store.Samples(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, sales.ErrNoData
	}

	grouped := make(map[string][]sales.Sample)
	for _, s := range samples {
		key := strings.ToLower(s.ProductName)
		grouped[key] = append(grouped[key], s)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &BatchResult{TargetDateLabel: target.Format(TargetDateLayout)}
	for _, name := range names {
		pf := f.forecastProduct(displayName(name), grouped[name], target)
		result.Products = append(result.Products, pf)
	}
	return result, nil
}

// ForecastSingle predicts quantity and price for one product, matched
// case-insensitively. Missing or insufficient history surfaces as an error
// rather than a zero-valued prediction.
func (f *Forecaster) ForecastSingle(ctx context.Context, productName string, target time.Time) (*ProductForecast, error) {
	samples, err := f.store.SamplesFor(ctx, productName)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, sales.ErrNoData
	}

	pf := f.forecastProduct(displayName(productName), samples, target)
	if pf.Err != nil {
		return nil, pf.Err
	}
	return &pf, nil
}

func (f *Forecaster) forecastProduct(name string, samples []sales.Sample, target time.Time) ProductForecast {
	qtyPts := make([]point, 0, len(samples))
	pricePts := make([]point, 0, len(samples))
	for _, s := range samples {
		qtyPts = append(qtyPts, point{Date: s.Date, Value: s.QuantitySold})
		pricePts = append(pricePts, point{Date: s.Date, Value: s.PricePerKg.InexactFloat64()})
	}

	qtyModel, err := fit(qtyPts)
	if err != nil {
		return ProductForecast{Name: name, Err: classify(err)}
	}
	priceModel, err := fit(pricePts)
	if err != nil {
		return ProductForecast{Name: name, Err: classify(err)}
	}

	// Quantity is floored at zero and truncated; a model may extrapolate a
	// negative point estimate but the result never reports one.
	rawQty := qtyModel.predict(target)
	qty := int(math.Max(0, rawQty))

	price := decimal.NewFromFloat(priceModel.predict(target)).Round(2)

	return ProductForecast{
		Name:              name,
		PredictedQuantity: qty,
		PredictedPrice:    price,
	}
}

// classify keeps caller-visible failures to the two advertised conditions;
// anything unexpected is reported as a generic fit failure, never a raw
// internal error.
func classify(err error) error {
	if errors.Is(err, ErrNotEnoughData) {
		return ErrNotEnoughData
	}
	return ErrFitFailed
}

func displayName(name string) string {
	runes := []rune(strings.ToLower(name))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
