package service

import (
	"context"

	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/visibility"
)

// profileGate resolves a slug and applies the visibility policy for a viewer.
type profileGate struct {
	persons     repository.PersonRepository
	friendships repository.FriendshipRepository
}

type gatedProfile struct {
	person *models.Person
	edge   *models.Friendship
	status models.ViewerStatus
}

// open returns the profile behind slug when viewerID may see it. viewerID is
// nil for anonymous callers.
func (g profileGate) open(ctx context.Context, viewerID *uint, slug string) (*gatedProfile, error) {
	person, err := g.persons.GetByProfileURL(ctx, slug)
	if err != nil {
		return nil, err
	}

	out := &gatedProfile{person: person}
	if viewerID != nil {
		out.edge, err = g.friendships.FindEdge(ctx, *viewerID, person.ID)
		if err != nil {
			return nil, err
		}
		out.status = visibility.ViewerStatus(out.edge, *viewerID)
	}

	if err := visibility.Err(visibility.CanView(viewerID, person.ID, person.GymaShare, out.status)); err != nil {
		return nil, err
	}
	return out, nil
}
