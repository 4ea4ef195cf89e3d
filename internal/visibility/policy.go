// Package visibility decides who may see a person's profile and gymas.
package visibility

import (
	"gyma/internal/models"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonSolo        Reason = "solo"
	ReasonBlocked     Reason = "blocked"
	ReasonFriendsOnly Reason = "friends_only"
	ReasonPublic      Reason = "public"
	ReasonOwner       Reason = "owner"
	ReasonFriend      Reason = "friend"
)

// Decision is the outcome of CanView.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// CanView applies the sharing rules in order: solo hides the profile from
// everyone, a blocked edge hides it as if it did not exist, gymbros admits the
// owner and accepted friends, pub admits anyone. viewerID is nil for anonymous
// callers.
func CanView(viewerID *uint, ownerID uint, pref models.SharePreference, status models.ViewerStatus) Decision {
	if pref == models.ShareSolo {
		return Decision{Reason: ReasonSolo}
	}
	if status == models.ViewerStatusBlocked {
		return Decision{Reason: ReasonBlocked}
	}
	if pref == models.ShareGymbros {
		if viewerID != nil && *viewerID == ownerID {
			return Decision{Allowed: true, Reason: ReasonOwner}
		}
		if status == models.ViewerStatusAccepted {
			return Decision{Allowed: true, Reason: ReasonFriend}
		}
		return Decision{Reason: ReasonFriendsOnly}
	}
	if pref == models.SharePub {
		return Decision{Allowed: true, Reason: ReasonPublic}
	}
	// Unknown preferences fail closed.
	return Decision{Reason: ReasonSolo}
}

// ViewerStatus translates a stored edge into the status seen by viewerID. A
// pending edge reads as pending for its initiator and received for its target.
func ViewerStatus(edge *models.Friendship, viewerID uint) models.ViewerStatus {
	if edge == nil || !edge.Involves(viewerID) {
		return models.ViewerStatusNone
	}
	switch edge.Status {
	case models.FriendshipStatusAccepted:
		return models.ViewerStatusAccepted
	case models.FriendshipStatusBlocked:
		return models.ViewerStatusBlocked
	case models.FriendshipStatusPending:
		if edge.PersonID == viewerID {
			return models.ViewerStatusPending
		}
		return models.ViewerStatusReceived
	}
	return models.ViewerStatusNone
}

// Err maps a denial to the error surfaced to the caller. Solo and blocked
// denials are indistinguishable from a missing profile.
func Err(d Decision) error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonFriendsOnly {
		return models.NewForbiddenError("Profile for friends only").WithReason(models.ReasonFriendsOnly)
	}
	return models.NewProfileNotFoundError()
}
