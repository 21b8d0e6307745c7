package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"reserva/pkg/kafka"
	"reserva/pkg/logger"
	"reserva/pkg/model"
)

type mockOutboxRepository struct {
	stageFunc           func(ctx context.Context, event *model.OutboxEvent) error
	findUnpublishedFunc func(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	markPublishedFunc   func(ctx context.Context, id string) error
}

func (m *mockOutboxRepository) Stage(ctx context.Context, event *model.OutboxEvent) error {
	if m.stageFunc != nil {
		return m.stageFunc(ctx, event)
	}
	return nil
}

func (m *mockOutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if m.findUnpublishedFunc != nil {
		return m.findUnpublishedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	if m.markPublishedFunc != nil {
		return m.markPublishedFunc(ctx, id)
	}
	return nil
}

type mockPublisher struct {
	publishFunc func(ctx context.Context, msg kafka.Message) error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, msg)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func TestDrain_PublishesAndMarks(t *testing.T) {
	pending := []*model.OutboxEvent{
		{ID: "a", Topic: TopicBookingCreated, Key: "1", EventID: "ev-1", EventType: TopicBookingCreated, Payload: []byte(`{}`)},
		{ID: "b", Topic: TopicBookingConfirmed, Key: "1", EventID: "ev-2", EventType: TopicBookingConfirmed, Payload: []byte(`{}`)},
	}

	var published []string
	var marked []string

	outbox := &mockOutboxRepository{
		findUnpublishedFunc: func(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
			return pending, nil
		},
		markPublishedFunc: func(ctx context.Context, id string) error {
			marked = append(marked, id)
			return nil
		},
	}

	publisher := &mockPublisher{
		publishFunc: func(ctx context.Context, msg kafka.Message) error {
			published = append(published, msg.GetEventID())
			return nil
		},
	}

	relay := NewRelay(outbox, map[string]EventPublisher{
		TopicBookingCreated:   publisher,
		TopicBookingConfirmed: publisher,
	}, time.Second, 100, "test", testLogger())

	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(published) != 2 || published[0] != "ev-1" || published[1] != "ev-2" {
		t.Errorf("expected [ev-1 ev-2] published in order, got %v", published)
	}
	if len(marked) != 2 || marked[0] != "a" || marked[1] != "b" {
		t.Errorf("expected [a b] marked, got %v", marked)
	}
}

func TestDrain_StopsBatchOnPublishFailure(t *testing.T) {
	pending := []*model.OutboxEvent{
		{ID: "a", Topic: TopicBookingCreated, Key: "1", EventID: "ev-1", EventType: TopicBookingCreated, Payload: []byte(`{}`)},
		{ID: "b", Topic: TopicBookingCreated, Key: "1", EventID: "ev-2", EventType: TopicBookingCreated, Payload: []byte(`{}`)},
	}

	var marked []string
	outbox := &mockOutboxRepository{
		findUnpublishedFunc: func(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
			return pending, nil
		},
		markPublishedFunc: func(ctx context.Context, id string) error {
			marked = append(marked, id)
			return nil
		},
	}

	publisher := &mockPublisher{
		publishFunc: func(ctx context.Context, msg kafka.Message) error {
			return errors.New("broker down")
		},
	}

	relay := NewRelay(outbox, map[string]EventPublisher{
		TopicBookingCreated: publisher,
	}, time.Second, 100, "test", testLogger())

	if err := relay.Drain(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}

	if len(marked) != 0 {
		t.Errorf("no event may be marked published after a failed publish, got %v", marked)
	}
}

func TestDrain_SkipsUnknownTopic(t *testing.T) {
	pending := []*model.OutboxEvent{
		{ID: "a", Topic: "unknown.topic", Key: "1", EventID: "ev-1", EventType: "unknown.topic", Payload: []byte(`{}`)},
	}

	outbox := &mockOutboxRepository{
		findUnpublishedFunc: func(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
			return pending, nil
		},
	}

	relay := NewRelay(outbox, map[string]EventPublisher{}, time.Second, 100, "test", testLogger())

	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
