package models

import "errors"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPendingPayment   OrderStatus = "pending-payment"
	StatusPaid             OrderStatus = "paid"
	StatusProcessing       OrderStatus = "processing"
	StatusReadyForDispatch OrderStatus = "ready-for-dispatch"
	StatusShipped          OrderStatus = "shipped"
	StatusDelivered        OrderStatus = "delivered"
	StatusCancelled        OrderStatus = "cancelled"
	StatusReturnPending    OrderStatus = "return-pending"
	StatusReturned         OrderStatus = "returned"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid order status transition")

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment:   {StatusPaid, StatusCancelled},
	StatusPaid:             {StatusProcessing, StatusCancelled},
	StatusProcessing:       {StatusReadyForDispatch, StatusCancelled},
	StatusReadyForDispatch: {StatusShipped, StatusCancelled, StatusReturnPending},
	StatusShipped:          {StatusDelivered, StatusReturnPending},
	StatusReturnPending:    {StatusReturned},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusProcessing, StatusReadyForDispatch,
		StatusShipped, StatusDelivered, StatusCancelled, StatusReturnPending, StatusReturned:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
