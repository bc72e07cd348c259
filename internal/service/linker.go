package service

import (
	"context"
	"time"

	"directory-service/internal/entity"
)

// EventPublisher queues profile appends that could not be applied.
type EventPublisher interface {
	PublishLink(ctx context.Context, event entity.LinkEvent) error
}

// LinkObserver counts failed profile appends by relation and outcome.
type LinkObserver interface {
	ObserveLinkFailure(relation, outcome string)
}

// linkTimeout bounds the append and publish once detached from the request.
const linkTimeout = 5 * time.Second

const (
	LinkOutcomeQueued = "queued"
	LinkOutcomeLost   = "lost"
)

// Linker records newly created resource ids in the owner's profile.
// The relational row is already committed when Link runs, so a failed append is queued
// for reconciliation instead of failing the request.
type Linker struct {
	profiles  ProfileStore
	publisher EventPublisher
	observer  LinkObserver
	now       func() time.Time
}

// NewLinker creates a Linker. publisher and observer may be nil.
func NewLinker(profiles ProfileStore, publisher EventPublisher, observer LinkObserver) *Linker {
	return &Linker{
		profiles:  profiles,
		publisher: publisher,
		observer:  observer,
		now:       time.Now,
	}
}

// Link appends id to the relation of userID's profile. It keeps running when the request
// that created the resource is cancelled.
func (l *Linker) Link(ctx context.Context, userID, relation string, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), linkTimeout)
	defer cancel()

	appended, err := l.profiles.AppendReference(ctx, userID, relation, id)
	if err == nil {
		if !appended {
			logger.Debug().Str("userID", userID).Str("relation", relation).Int64("id", id).
				Msg("No profile to link resource into")
		}
		return
	}

	logger.Warn().Err(err).Str("userID", userID).Str("relation", relation).Int64("id", id).
		Msg("Error appending resource to profile")

	if l.publisher != nil {
		event := entity.LinkEvent{
			UserID:     userID,
			Relation:   relation,
			ForeignKey: id,
			OccurredAt: l.now().UTC(),
		}
		pubErr := l.publisher.PublishLink(ctx, event)
		if pubErr == nil {
			l.observe(relation, LinkOutcomeQueued)
			return
		}
		logger.Error().Err(pubErr).Str("userID", userID).Str("relation", relation).Int64("id", id).
			Msg("Error queueing profile link")
	}

	l.observe(relation, LinkOutcomeLost)
	logger.Error().Str("userID", userID).Str("relation", relation).Int64("id", id).
		Msg("Profile link lost, resource has no back-reference")
}

func (l *Linker) observe(relation, outcome string) {
	if l.observer != nil {
		l.observer.ObserveLinkFailure(relation, outcome)
	}
}
