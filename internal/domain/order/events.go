package order

import "time"

// OrderPlacedEvent is emitted when a buyer creates an order. The product name
// rides along so downstream consumers can render the activity trail without
// a lookup.
type OrderPlacedEvent struct {
	OrderID     string
	BuyerID     string
	SellerID    string
	ProductID   string
	ProductName string
	Quantity    int
	OccurredAt  time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order, productName string) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		ProductID:   o.ProductID,
		ProductName: productName,
		Quantity:    o.Quantity,
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderAcceptedEvent is emitted when the seller accepts a pending order and
// stock has been decremented.
type OrderAcceptedEvent struct {
	OrderID    string
	SellerID   string
	ProductID  string
	Quantity   int
	OccurredAt time.Time
}

func (OrderAcceptedEvent) EventName() string { return "order.accepted" }

func NewOrderAcceptedEvent(o *Order) OrderAcceptedEvent {
	return OrderAcceptedEvent{
		OrderID:    o.ID,
		SellerID:   o.SellerID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderRejectedEvent is emitted when the seller rejects a pending order.
type OrderRejectedEvent struct {
	OrderID    string
	SellerID   string
	OccurredAt time.Time
}

func (OrderRejectedEvent) EventName() string { return "order.rejected" }

func NewOrderRejectedEvent(o *Order) OrderRejectedEvent {
	return OrderRejectedEvent{
		OrderID:    o.ID,
		SellerID:   o.SellerID,
		OccurredAt: time.Now().UTC(),
	}
}

// PaymentRecordedEvent is emitted when the buyer confirms a payment method.
type PaymentRecordedEvent struct {
	OrderID    string
	BuyerID    string
	Method     PaymentMethod
	OccurredAt time.Time
}

func (PaymentRecordedEvent) EventName() string { return "order.payment_recorded" }

func NewPaymentRecordedEvent(o *Order) PaymentRecordedEvent {
	return PaymentRecordedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Method:     o.PaymentMethod,
		OccurredAt: time.Now().UTC(),
	}
}
