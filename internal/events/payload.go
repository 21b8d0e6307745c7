package events

import "time"

// BookingEvent is the payload published for every lifecycle topic. The
// event type matches the topic name.
type BookingEvent struct {
	EventType          string    `json:"eventType"`
	ReservationID      int64     `json:"reservationId"`
	PropertyID         int64     `json:"propertyId"`
	UserID             int64     `json:"userId"`
	CheckInDate        time.Time `json:"checkInDate"`
	CheckOutDate       time.Time `json:"checkOutDate"`
	AmountEth          float64   `json:"amountEth"`
	Status             string    `json:"status"`
	BlockchainTxHash   string    `json:"blockchainTxHash,omitempty"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
