package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/krishibazaar/marketplace/internal/domain/sales"
)

// SalesStore is an in-memory sales history, used in tests and demo seeding.
// Samples are append-only; nothing removes or edits them.
type SalesStore struct {
	mu      sync.RWMutex
	samples []sales.Sample
}

func NewSalesStore(samples ...sales.Sample) *SalesStore {
	s := &SalesStore{}
	s.samples = append(s.samples, samples...)
	return s
}

func (s *SalesStore) Record(sample sales.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

func (s *SalesStore) Samples(ctx context.Context) ([]sales.Sample, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 {
		return nil, sales.ErrNoData
	}
	out := make([]sales.Sample, len(s.samples))
	copy(out, s.samples)
	return out, nil
}

func (s *SalesStore) SamplesFor(ctx context.Context, productName string) ([]sales.Sample, error) {
	_ = ctx
	name := strings.ToLower(productName)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []sales.Sample
	for _, sample := range s.samples {
		if strings.ToLower(sample.ProductName) == name {
			out = append(out, sample)
		}
	}
	if len(out) == 0 {
		return nil, sales.ErrNoData
	}
	return out, nil
}
