package service

import (
	"context"
	"strings"

	"gyma/internal/models"
	"gyma/internal/repository"
)

// SearchLimit caps each search query.
const SearchLimit = 20

// ProfileService exposes profiles as seen by the caller.
type ProfileService struct {
	persons     repository.PersonRepository
	friendships repository.FriendshipRepository
	gate        profileGate
}

// NewProfileService returns a new ProfileService.
func NewProfileService(persons repository.PersonRepository, friendships repository.FriendshipRepository) *ProfileService {
	return &ProfileService{
		persons:     persons,
		friendships: friendships,
		gate:        profileGate{persons: persons, friendships: friendships},
	}
}

// View returns the profile behind slug with its friend list and the
// friendship status relative to the viewer.
func (s *ProfileService) View(ctx context.Context, viewerID *uint, slug string) (*models.Profile, error) {
	profile, err := s.gate.open(ctx, viewerID, slug)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendships.ListAccepted(ctx, profile.person.ID)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		Person:           profile.person,
		FriendList:       models.Summaries(withoutSolo(friends)),
		FriendshipStatus: profile.status,
	}, nil
}

// Me returns the caller's own profile with every list they manage.
func (s *ProfileService) Me(ctx context.Context, callerID uint) (*models.MyProfile, error) {
	person, err := s.persons.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendships.ListAccepted(ctx, callerID)
	if err != nil {
		return nil, err
	}
	pending, err := s.friendships.ListIncomingPending(ctx, callerID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.friendships.ListBlockedByMe(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &models.MyProfile{
		Person:            person,
		FriendList:        models.Summaries(friends),
		PendingFriendList: models.Summaries(pending),
		BlockedList:       models.Summaries(blocked),
	}, nil
}

// Search matches slugs, or "first last" names in either order with the
// exact order ranked first. Solo profiles and blocked relationships are
// never returned.
func (s *ProfileService) Search(ctx context.Context, viewerID *uint, query string) ([]models.PersonSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	var found []models.Person
	if parts := strings.Fields(query); len(parts) == 2 {
		exact, err := s.persons.SearchByName(ctx, parts[0], parts[1], SearchLimit)
		if err != nil {
			return nil, err
		}
		swapped, err := s.persons.SearchByName(ctx, parts[1], parts[0], SearchLimit)
		if err != nil {
			return nil, err
		}
		found = mergeUnique(exact, swapped)
	} else {
		var err error
		found, err = s.persons.SearchByProfileURL(ctx, strings.ToLower(query), SearchLimit)
		if err != nil {
			return nil, err
		}
	}

	hidden := map[uint]bool{}
	if viewerID != nil {
		blocked, err := s.friendships.ListBlockedIDs(ctx, *viewerID)
		if err != nil {
			return nil, err
		}
		for _, id := range blocked {
			hidden[id] = true
		}
	}

	out := make([]models.PersonSummary, 0, len(found))
	for i := range found {
		if hidden[found[i].ID] || found[i].GymaShare == models.ShareSolo {
			continue
		}
		out = append(out, found[i].Summary())
	}
	return out, nil
}

func mergeUnique(first, second []models.Person) []models.Person {
	seen := make(map[uint]bool, len(first))
	out := make([]models.Person, 0, len(first)+len(second))
	for _, list := range [][]models.Person{first, second} {
		for _, p := range list {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

func withoutSolo(persons []models.Person) []models.Person {
	out := make([]models.Person, 0, len(persons))
	for _, p := range persons {
		if p.GymaShare != models.ShareSolo {
			out = append(out, p)
		}
	}
	return out
}
