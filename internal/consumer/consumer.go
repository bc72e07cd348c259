package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"directory-service/internal/entity"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Appender applies a queued profile link.
type Appender interface {
	AppendReference(ctx context.Context, userID, relation string, foreignKey int64) (bool, error)
}

// Consumer replays failed profile links from the link topic.
type Consumer struct {
	reader   MessageReader
	profiles Appender
}

func NewConsumer(reader MessageReader, profiles Appender) *Consumer {
	return &Consumer{reader: reader, profiles: profiles}
}

// Run reads link events until ctx is cancelled. A message whose replay fails is logged
// and not retried.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info().Msg("Link consumer stopped")
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage appends the event's foreign key to the owner's profile.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event entity.LinkEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	if event.UserID == "" || !entity.IsRelation(event.Relation) {
		log.Error().Str("key", string(msg.Key)).Msg("Discarding malformed link event")
		return
	}

	appended, err := c.profiles.AppendReference(ctx, event.UserID, event.Relation, event.ForeignKey)
	if err != nil {
		log.Error().Msgf("Error replaying %s %d for user %s: %v", event.Relation, event.ForeignKey, event.UserID, err)
		return
	}
	if !appended {
		log.Warn().Msgf("User %s no longer exists, dropping %s %d", event.UserID, event.Relation, event.ForeignKey)
		return
	}
	log.Info().Msgf("Replayed %s %d for user %s", event.Relation, event.ForeignKey, event.UserID)
}
