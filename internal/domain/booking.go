package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Booking reserves a space for the half-open interval [StartTime, EndTime).
type Booking struct {
	ID              string
	SpaceID         string
	UserID          string
	StartTime       time.Time
	EndTime         time.Time
	TotalAmount     float64
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the booking still occupies its time slot. Cancelled
// bookings release the slot and drop out of the interval index.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

type Review struct {
	ID        string
	BookingID string
	SpaceID   string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
