// Package events publishes domain events about friendships and gymas.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeFriendshipRequested = "friendship.requested"
	TypeFriendshipAccepted  = "friendship.accepted"
	TypeFriendshipBlocked   = "friendship.blocked"
	TypeFriendshipRemoved   = "friendship.removed"
	TypeGymaCompleted       = "gyma.completed"
)

// Event is the JSON payload delivered to subscribers. SubjectID is the person
// the event is about: the target of a friendship operation or the owner of a gyma.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	SubjectID  uint      `json:"subject_id"`
	GymaID     uint      `json:"gyma_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(eventType string, actorID, subjectID uint) Event {
	return Event{
		Type:       eventType,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to a backend.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
