package service

import (
	"context"
	"log/slog"

	"gyma/internal/events"
	"gyma/internal/models"
	"gyma/internal/observability"
	"gyma/internal/repository"
	"gyma/internal/visibility"

	"go.opentelemetry.io/otel/attribute"
)

// FriendshipResult reports the outcome of a friendship operation.
type FriendshipResult struct {
	Op FriendshipOp `json:"operation"`
	// Status is the relationship as the caller sees it afterwards.
	Status  models.ViewerStatus `json:"friendship_status"`
	Changed bool                `json:"changed"`
}

// FriendshipService runs friendship operations addressed by profile slug.
type FriendshipService struct {
	persons     repository.PersonRepository
	friendships repository.FriendshipRepository
	publisher   events.Publisher
}

// NewFriendshipService returns a new FriendshipService. A nil publisher drops events.
func NewFriendshipService(persons repository.PersonRepository, friendships repository.FriendshipRepository, publisher events.Publisher) *FriendshipService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &FriendshipService{
		persons:     persons,
		friendships: friendships,
		publisher:   publisher,
	}
}

// Request sends a friend request to the person behind slug.
func (s *FriendshipService) Request(ctx context.Context, callerID uint, slug string) (*FriendshipResult, error) {
	return s.run(ctx, OpRequest, callerID, slug)
}

// Accept accepts the pending request the person behind slug sent to the caller.
func (s *FriendshipService) Accept(ctx context.Context, callerID uint, slug string) (*FriendshipResult, error) {
	return s.run(ctx, OpAccept, callerID, slug)
}

// Block blocks the person behind slug.
func (s *FriendshipService) Block(ctx context.Context, callerID uint, slug string) (*FriendshipResult, error) {
	return s.run(ctx, OpBlock, callerID, slug)
}

// Unblock lifts a block the caller placed.
func (s *FriendshipService) Unblock(ctx context.Context, callerID uint, slug string) (*FriendshipResult, error) {
	return s.run(ctx, OpUnblock, callerID, slug)
}

// Remove unfriends, cancels or declines.
func (s *FriendshipService) Remove(ctx context.Context, callerID uint, slug string) (*FriendshipResult, error) {
	return s.run(ctx, OpRemove, callerID, slug)
}

func (s *FriendshipService) run(ctx context.Context, op FriendshipOp, callerID uint, slug string) (*FriendshipResult, error) {
	span, ctx := observability.NewSpan(ctx, "friendship."+string(op),
		attribute.Int64("caller.id", int64(callerID)),
		attribute.String("target.slug", slug),
	)
	defer span.End()

	result, targetID, err := s.apply(ctx, op, callerID, slug)
	span.SetError(err)
	observability.FriendshipTransitions.WithLabelValues(string(op), observability.ResultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	if result.Changed {
		publish(ctx, s.publisher, events.New(eventTypeFor(op), callerID, targetID))
	}
	return result, nil
}

func (s *FriendshipService) apply(ctx context.Context, op FriendshipOp, callerID uint, slug string) (*FriendshipResult, uint, error) {
	if _, err := s.persons.GetByID(ctx, callerID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, 0, models.NewUnauthorizedError("Create a profile first").WithReason(models.ReasonProfileRequired)
		}
		return nil, 0, err
	}

	target, err := s.persons.GetByProfileURL(ctx, slug)
	if err != nil {
		return nil, 0, err
	}
	if target.ID == callerID {
		return nil, 0, models.NewValidationError("Cannot befriend yourself").WithReason(models.ReasonSelfFriendship)
	}
	if op == OpRequest && target.GymaShare == models.ShareSolo {
		return nil, 0, models.NewProfileNotFoundError()
	}

	result := &FriendshipResult{Op: op}
	err = s.friendships.Transaction(ctx, func(store repository.FriendshipRepository) error {
		edge, err := store.FindEdge(ctx, callerID, target.ID)
		if err != nil {
			return err
		}
		effect, err := Transition(op, edge, callerID)
		if err != nil {
			return err
		}

		switch effect.Kind {
		case EffectCreate:
			created, err := store.Create(ctx, callerID, target.ID)
			if err != nil {
				return err
			}
			edge = created
		case EffectAccept:
			if err := store.SetStatus(ctx, edge, models.FriendshipStatusAccepted); err != nil {
				return err
			}
		case EffectBlock:
			if err := store.ReparentToBlocker(ctx, edge, callerID); err != nil {
				return err
			}
		case EffectRemove:
			if err := store.Remove(ctx, edge); err != nil {
				return err
			}
			edge = nil
		}

		result.Changed = effect.Kind != EffectNone
		result.Status = visibility.ViewerStatus(edge, callerID)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result, target.ID, nil
}

func eventTypeFor(op FriendshipOp) string {
	switch op {
	case OpRequest:
		return events.TypeFriendshipRequested
	case OpAccept:
		return events.TypeFriendshipAccepted
	case OpBlock:
		return events.TypeFriendshipBlocked
	default:
		return events.TypeFriendshipRemoved
	}
}

// publish delivers an event on a best-effort basis.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	err := publisher.Publish(ctx, event)
	observability.EventsPublished.WithLabelValues(event.Type, observability.ResultLabel(err)).Inc()
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			"type", event.Type,
			"subject_id", event.SubjectID,
			"err", err,
		)
	}
}
