// Package salescsv reads the historical sales ledger from a CSV file with the
// header product_name,date,quantity_sold,price_per_kg. The file is re-read on
// every call; the forecaster refits from scratch anyway, so caching here would
// only add a staleness window.
package salescsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/krishibazaar/marketplace/internal/domain/sales"
)

const dateLayout = "2006-01-02"

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Samples(ctx context.Context) ([]sales.Sample, error) {
	return s.load(ctx, "")
}

func (s *Store) SamplesFor(ctx context.Context, productName string) ([]sales.Sample, error) {
	return s.load(ctx, strings.ToLower(productName))
}

func (s *Store) load(ctx context.Context, nameFilter string) ([]sales.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sales.ErrNoData
		}
		return nil, fmt.Errorf("sales csv: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, sales.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("sales csv: read header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []sales.Sample
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sales csv: read row: %w", err)
		}

		sample, err := parseRow(record, cols)
		if err != nil {
			return nil, err
		}
		if nameFilter != "" && strings.ToLower(sample.ProductName) != nameFilter {
			continue
		}
		out = append(out, sample)
	}

	if len(out) == 0 {
		return nil, sales.ErrNoData
	}
	return out, nil
}

type columns struct {
	name, date, quantity, price int
}

func columnIndex(header []string) (columns, error) {
	cols := columns{name: -1, date: -1, quantity: -1, price: -1}
	for i, h := range header {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "product_name":
			cols.name = i
		case "date":
			cols.date = i
		case "quantity_sold":
			cols.quantity = i
		case "price_per_kg":
			cols.price = i
		}
	}
	if cols.name < 0 || cols.date < 0 || cols.quantity < 0 || cols.price < 0 {
		return cols, sales.ErrNoData
	}
	return cols, nil
}

func parseRow(record []string, cols columns) (sales.Sample, error) {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	date, err := time.Parse(dateLayout, get(cols.date))
	if err != nil {
		return sales.Sample{}, fmt.Errorf("sales csv: bad date %q: %w", get(cols.date), err)
	}
	qty, err := strconv.ParseFloat(get(cols.quantity), 64)
	if err != nil || qty < 0 {
		return sales.Sample{}, fmt.Errorf("sales csv: bad quantity %q", get(cols.quantity))
	}
	price, err := decimal.NewFromString(get(cols.price))
	if err != nil || !price.IsPositive() {
		return sales.Sample{}, fmt.Errorf("sales csv: bad price %q", get(cols.price))
	}

	return sales.Sample{
		ProductName:  get(cols.name),
		Date:         date,
		QuantitySold: qty,
		PricePerKg:   price,
	}, nil
}
