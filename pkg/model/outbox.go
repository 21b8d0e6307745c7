package model

import "time"

// OutboxEvent is written in the same transaction as the state change it
// announces. The relay publishes unpublished rows to Kafka and stamps
// PublishedAt.
type OutboxEvent struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty"`
	Topic       string     `json:"topic" bson:"topic"`
	Key         string     `json:"key" bson:"key"`
	EventID     string     `json:"event_id" bson:"event_id"`
	EventType   string     `json:"event_type" bson:"event_type"`
	Payload     []byte     `json:"payload" bson:"payload"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" bson:"published_at,omitempty"`
}
