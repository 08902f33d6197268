package activity

import (
	"context"
	"time"
)

// Entry is one line of the audit trail rendered on the admin dashboard.
type Entry struct {
	ID         string
	ActorID    string
	Action     string
	OccurredAt time.Time
}

type Repository interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
