package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeWorkoutCreated  = "workout.created"
	TypeWorkoutDeleted  = "workout.deleted"
	TypeFavoriteToggled = "favorite.toggled"
	TypeUserRegistered  = "user.registered"
)

// Event is emitted after successful store mutations, for downstream
// consumers (progress analytics, notifications). Best effort only -
// publish failures never fail the originating request.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	WorkoutID  string    `json:"workoutId,omitempty"`
	ExerciseID string    `json:"exerciseId,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher is used when no kafka brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	eventJson, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: eventJson,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
