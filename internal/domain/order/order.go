package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("order: not found")
	ErrInvalidQuantity  = errors.New("order: quantity must be greater than zero")
	ErrUnauthorized     = errors.New("order: actor is not permitted to modify this order")
	ErrAlreadyFinalized = errors.New("order: order is no longer pending")
	ErrOrderRejected    = errors.New("order: rejected orders do not accept payment updates")
	ErrInvalidMethod    = errors.New("order: unknown payment method")
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentInstant        PaymentMethod = "UPI"
)

// Order tracks a buyer's request against a single listing. SellerID is
// snapshotted from the product at creation time so attribution survives a
// later reassignment of the listing. UnitPrice is snapshotted at acceptance
// and is the revenue basis for reconciliation.
type Order struct {
	ID            string
	ProductID     string
	BuyerID       string
	SellerID      string
	Quantity      int
	UnitPrice     decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, productID, buyerID, sellerID string, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		ProductID:     productID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		Quantity:      quantity,
		Status:        StatusPending,
		PaymentMethod: PaymentCashOnDelivery,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Accept finalizes the order, capturing the unit price in effect at the
// moment of acceptance. Fails with ErrAlreadyFinalized on a non-pending order.
func (o *Order) Accept(unitPrice decimal.Decimal) error {
	next, err := stateFor(o.Status).OnAccept(o, unitPrice)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// Reject finalizes the order with no inventory effect.
func (o *Order) Reject() error {
	next, err := stateFor(o.Status).OnReject(o)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// RecordPayment updates the payment method. The buyer may record a payment
// confirmation against pending and accepted orders; rejected orders refuse it.
func (o *Order) RecordPayment(method PaymentMethod) error {
	if method != PaymentCashOnDelivery && method != PaymentInstant {
		return ErrInvalidMethod
	}
	if o.Status == StatusRejected {
		return ErrOrderRejected
	}
	o.PaymentMethod = method
	o.touch()
	return nil
}

func (o *Order) IsPending() bool { return o.Status == StatusPending }

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}
