package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS Event Types
const (
	EventBookingCreated      = "booking.created"
	EventBookingCancelled    = "booking.cancelled"
	EventBookingUpdated      = "booking.updated"
	EventPaymentOrderCreated = "payment.order_created"
	EventPaymentCompleted    = "payment.completed"
	EventPaymentFailed       = "payment.failed"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	PujaID    *int64    `json:"puja_id"`
	PlanID    *int64    `json:"plan_id"`
	Chadawas  int       `json:"chadawas"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID      int64         `json:"booking_id"`
	PreviousStatus BookingStatus `json:"previous_status"`
	CancelledBy    int64         `json:"cancelled_by"`
	Timestamp      time.Time     `json:"timestamp"`
}

// BookingUpdatedEvent represents an admin update of a booking
type BookingUpdatedEvent struct {
	BookingID int64         `json:"booking_id"`
	Status    BookingStatus `json:"status"`
	UpdatedBy int64         `json:"updated_by"`
	Timestamp time.Time     `json:"timestamp"`
}

// PaymentOrderCreatedEvent represents a gateway order creation
type PaymentOrderCreatedEvent struct {
	BookingID int64           `json:"booking_id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}

// PaymentCompletedEvent represents a successful payment event
type PaymentCompletedEvent struct {
	BookingID int64     `json:"booking_id"`
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment event
type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
