package events

// Topics carrying reservation lifecycle events. Keys are reservation
// IDs, so per-reservation ordering holds within each topic.
const (
	TopicBookingCreated    = "booking.created"
	TopicBookingConfirmed  = "booking.confirmed"
	TopicBookingCancelled  = "booking.cancelled"
	TopicCheckinCompleted  = "checkin.completed"
	TopicCheckoutCompleted = "checkout.completed"

	TopicReservationsDLQ = "reservations.dlq"
)

// Topics lists every lifecycle topic the relay publishes to.
var Topics = []string{
	TopicBookingCreated,
	TopicBookingConfirmed,
	TopicBookingCancelled,
	TopicCheckinCompleted,
	TopicCheckoutCompleted,
}

const SchemaVersion = "1"
