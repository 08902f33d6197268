package id

import "github.com/google/uuid"

// UUIDGenerator issues random UUIDv4 identifiers for orders, listings, and
// activity entries.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
