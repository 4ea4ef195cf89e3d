package service

import (
	"gyma/internal/models"
)

// FriendshipOp is an operation a person performs on the edge to another person.
type FriendshipOp string

const (
	OpRequest FriendshipOp = "request"
	OpAccept  FriendshipOp = "accept"
	OpBlock   FriendshipOp = "block"
	OpUnblock FriendshipOp = "unblock"
	OpRemove  FriendshipOp = "remove"
)

// EffectKind is the storage mutation a legal transition requires.
type EffectKind int

const (
	// EffectNone leaves the edge as it is.
	EffectNone EffectKind = iota
	// EffectCreate inserts a pending edge with the actor as initiator.
	EffectCreate
	// EffectAccept sets a pending edge to accepted.
	EffectAccept
	// EffectBlock reparents the edge to the actor and marks it blocked.
	EffectBlock
	// EffectRemove deletes the edge.
	EffectRemove
)

// Effect is the result of a legal transition.
type Effect struct {
	Kind EffectKind
}

func edgeNotFound() error {
	return models.NewNotFoundError("Friendship", "between persons").WithReason(models.ReasonEdgeNotFound)
}

// Transition decides what op by actorID does to edge (nil when absent). It is
// the single place where the friendship rules live; it never touches storage.
//
// A blocked edge is invisible to the blocked party: anything they try other
// than unblock fails exactly like a missing profile.
func Transition(op FriendshipOp, edge *models.Friendship, actorID uint) (Effect, error) {
	if edge != nil && !edge.Involves(actorID) {
		return Effect{}, models.NewForbiddenError("Not part of this friendship").WithReason(models.ReasonNotAuthorized)
	}
	blocked := edge != nil && edge.Status == models.FriendshipStatusBlocked
	isBlocker := blocked && edge.PersonID == actorID

	switch op {
	case OpRequest:
		if edge == nil {
			return Effect{Kind: EffectCreate}, nil
		}
		switch edge.Status {
		case models.FriendshipStatusAccepted:
			return Effect{}, models.NewConflictError("Already friends").WithReason(models.ReasonAlreadyFriends)
		case models.FriendshipStatusPending:
			return Effect{}, models.NewConflictError("Friend request already exists").WithReason(models.ReasonAlreadyRequested)
		}
		if isBlocker {
			return Effect{}, models.NewConflictError("Profile is blocked").WithReason(models.ReasonAlreadyBlocked)
		}
		return Effect{}, models.NewProfileNotFoundError()

	case OpAccept:
		if edge == nil {
			return Effect{}, edgeNotFound()
		}
		switch edge.Status {
		case models.FriendshipStatusAccepted:
			return Effect{}, models.NewConflictError("Already friends").WithReason(models.ReasonAlreadyFriends)
		case models.FriendshipStatusPending:
			if edge.FriendID != actorID {
				return Effect{}, models.NewForbiddenError("Only the requested person can accept").WithReason(models.ReasonNotAuthorized)
			}
			return Effect{Kind: EffectAccept}, nil
		}
		if isBlocker {
			return Effect{}, models.NewConflictError("Profile is blocked").WithReason(models.ReasonNotPending)
		}
		return Effect{}, models.NewProfileNotFoundError()

	case OpBlock:
		if edge == nil {
			return Effect{}, edgeNotFound()
		}
		if blocked {
			if isBlocker {
				return Effect{}, models.NewConflictError("Already blocked").WithReason(models.ReasonAlreadyBlocked)
			}
			return Effect{}, models.NewProfileNotFoundError()
		}
		return Effect{Kind: EffectBlock}, nil

	case OpUnblock:
		if edge == nil {
			return Effect{}, edgeNotFound()
		}
		if !blocked {
			return Effect{}, models.NewConflictError("Not blocked").WithReason(models.ReasonNotBlocked)
		}
		if !isBlocker {
			return Effect{}, models.NewForbiddenError("Only the blocker can unblock").WithReason(models.ReasonNotAuthorized)
		}
		return Effect{Kind: EffectRemove}, nil

	case OpRemove:
		if edge == nil {
			return Effect{}, edgeNotFound()
		}
		if blocked {
			if isBlocker {
				// Already as disconnected as it gets; unblock removes the edge.
				return Effect{Kind: EffectNone}, nil
			}
			return Effect{}, models.NewProfileNotFoundError()
		}
		return Effect{Kind: EffectRemove}, nil
	}

	return Effect{}, models.NewValidationError("Unknown friendship operation")
}
