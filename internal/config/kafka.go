package config

import (
	"context"
	"encoding/json"
	"fmt"

	"directory-service/internal/entity"

	"github.com/segmentio/kafka-go"
)

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{}, // Balancer for selecting partition
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// MessageWriter is the part of kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LinkPublisher queues failed profile appends on the link topic.
type LinkPublisher struct {
	writer MessageWriter
}

func NewLinkPublisher(writer MessageWriter) *LinkPublisher {
	return &LinkPublisher{writer: writer}
}

// PublishLink writes event to the link topic as JSON.
func (p *LinkPublisher) PublishLink(ctx context.Context, event entity.LinkEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("link-%s-%d", event.Relation, event.ForeignKey)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish link %s %d: %w", event.Relation, event.ForeignKey, err)
	}
	return nil
}
