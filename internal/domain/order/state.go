package order

import "github.com/shopspring/decimal"

// lifecycleState implements the state pattern for the order lifecycle:
// Pending -> {Accepted, Rejected}, both terminal. Once an order leaves
// Pending, every further transition fails with ErrAlreadyFinalized.
type lifecycleState interface {
	Status() Status
	OnAccept(o *Order, unitPrice decimal.Decimal) (lifecycleState, error)
	OnReject(o *Order) (lifecycleState, error)
}

func stateFor(s Status) lifecycleState {
	switch s {
	case StatusAccepted:
		return acceptedState{}
	case StatusRejected:
		return rejectedState{}
	default:
		return pendingState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnAccept(o *Order, unitPrice decimal.Decimal) (lifecycleState, error) {
	o.UnitPrice = unitPrice
	return acceptedState{}, nil
}

func (pendingState) OnReject(*Order) (lifecycleState, error) {
	return rejectedState{}, nil
}

type acceptedState struct{}

func (acceptedState) Status() Status { return StatusAccepted }

func (acceptedState) OnAccept(*Order, decimal.Decimal) (lifecycleState, error) {
	return nil, ErrAlreadyFinalized
}

func (acceptedState) OnReject(*Order) (lifecycleState, error) {
	return nil, ErrAlreadyFinalized
}

type rejectedState struct{}

func (rejectedState) Status() Status { return StatusRejected }

func (rejectedState) OnAccept(*Order, decimal.Decimal) (lifecycleState, error) {
	return nil, ErrAlreadyFinalized
}

func (rejectedState) OnReject(*Order) (lifecycleState, error) {
	return nil, ErrAlreadyFinalized
}
