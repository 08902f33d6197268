package salescsv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/sales"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = `product_name,date,quantity_sold,price_per_kg
Tomato,2025-01-01,12.5,30.00
Tomato,2025-01-02,14,31.50
Onion,2025-01-01,8,22
`

func TestSamples(t *testing.T) {
	store := New(writeCSV(t, sampleCSV))

	samples, err := store.Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "Tomato", samples[0].ProductName)
	assert.Equal(t, 12.5, samples[0].QuantitySold)
	assert.Equal(t, "30.00", samples[0].PricePerKg.String())
	assert.Equal(t, 2025, samples[0].Date.Year())
}

func TestSamplesFor_CaseInsensitive(t *testing.T) {
	store := New(writeCSV(t, sampleCSV))

	samples, err := store.SamplesFor(context.Background(), "TOMATO")
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	_, err = store.SamplesFor(context.Background(), "mango")
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestSamples_MissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent.csv"))

	_, err := store.Samples(context.Background())
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestSamples_EmptyFile(t *testing.T) {
	store := New(writeCSV(t, ""))

	_, err := store.Samples(context.Background())
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestSamples_HeaderOnly(t *testing.T) {
	store := New(writeCSV(t, "product_name,date,quantity_sold,price_per_kg\n"))

	_, err := store.Samples(context.Background())
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestSamples_ReordersColumns(t *testing.T) {
	csv := "date,price_per_kg,product_name,quantity_sold\n2025-01-01,30,Tomato,12\n"
	store := New(writeCSV(t, csv))

	samples, err := store.Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "Tomato", samples[0].ProductName)
	assert.Equal(t, 12.0, samples[0].QuantitySold)
}

func TestSamples_BadRows(t *testing.T) {
	cases := map[string]string{
		"bad date":       "product_name,date,quantity_sold,price_per_kg\nTomato,01-01-2025,12,30\n",
		"negative qty":   "product_name,date,quantity_sold,price_per_kg\nTomato,2025-01-01,-2,30\n",
		"zero price":     "product_name,date,quantity_sold,price_per_kg\nTomato,2025-01-01,12,0\n",
		"missing header": "name,when,how_much,cost\nTomato,2025-01-01,12,30\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			store := New(writeCSV(t, content))
			_, err := store.Samples(context.Background())
			assert.Error(t, err)
		})
	}
}
