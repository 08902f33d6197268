package order

// IDGenerator supplies identifiers for new orders.
type IDGenerator interface {
	NewID() string
}
