package memory

import (
	"context"
	"sync"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
)

type ActivityRepository struct {
	mu      sync.RWMutex
	entries []activity.Entry
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Append(ctx context.Context, e activity.Entry) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	return nil
}

func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]activity.Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
