package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gyma/internal/models"
	"gyma/internal/observability"
	"gyma/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Page sizes per feed.
const (
	MinePageSize     = 3
	MineMorePageSize = 5
	GymbrosPageSize  = 10
	PublicPageSize   = 10
	ProfilePageSize  = 5
)

// Feed variants, used as metric labels.
const (
	FeedMine            = "mine"
	FeedGymbros         = "gymbros"
	FeedPublic          = "public"
	FeedPublicAnonymous = "public_anonymous"
	FeedProfile         = "profile"
)

// FeedService assembles the gyma feeds. Pagination is driven by the ids the
// client already holds; there is no server-side cursor.
type FeedService struct {
	gymas       repository.GymaRepository
	friendships repository.FriendshipRepository
	gate        profileGate
}

// NewFeedService returns a new FeedService.
func NewFeedService(gymas repository.GymaRepository, persons repository.PersonRepository, friendships repository.FriendshipRepository) *FeedService {
	return &FeedService{
		gymas:       gymas,
		friendships: friendships,
		gate:        profileGate{persons: persons, friendships: friendships},
	}
}

// ParseExclusions parses a comma separated id list. Blank entries are ignored;
// anything else that is not an id is a validation error.
func ParseExclusions(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, models.NewValidationError("Invalid gyma key: " + part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// Mine returns the caller's own completed gymas. A non-empty exclusion set
// marks a "more" request and gets the larger page.
func (s *FeedService) Mine(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error) {
	limit := MinePageSize
	if len(exclude) > 0 {
		limit = MineMorePageSize
	}
	return s.list(ctx, FeedMine, repository.FeedQuery{
		OwnerIDs:  []uint{callerID},
		Exclude:   exclude,
		Limit:     limit,
		WithOwner: true,
	})
}

// Gymbros returns gymas of the caller and their accepted friends. Without
// accepted friends the feed is empty.
func (s *FeedService) Gymbros(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error) {
	friendIDs, err := s.friendships.ListAcceptedIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		observability.ObserveFeed(FeedGymbros, 0, time.Now())
		return []models.FeedEntry{}, nil
	}
	return s.list(ctx, FeedGymbros, repository.FeedQuery{
		OwnerIDs:  append(friendIDs, callerID),
		Exclude:   exclude,
		Limit:     GymbrosPageSize,
		WithOwner: true,
	})
}

// Public returns gymas of every public person with the owner summary. A known
// viewer does not see persons they share a blocked edge with.
func (s *FeedService) Public(ctx context.Context, viewerID *uint, exclude []uint) ([]models.FeedEntry, error) {
	q := repository.FeedQuery{
		PublicOnly: true,
		Exclude:    exclude,
		Limit:      PublicPageSize,
		WithOwner:  true,
	}
	if viewerID != nil {
		blocked, err := s.friendships.ListBlockedIDs(ctx, *viewerID)
		if err != nil {
			return nil, err
		}
		q.ExcludeOwners = blocked
	}
	return s.list(ctx, FeedPublic, q)
}

// PublicAnonymous is Public without owner summaries.
func (s *FeedService) PublicAnonymous(ctx context.Context, exclude []uint) ([]models.FeedEntry, error) {
	return s.list(ctx, FeedPublicAnonymous, repository.FeedQuery{
		PublicOnly: true,
		Exclude:    exclude,
		Limit:      PublicPageSize,
	})
}

// Profile returns gymas of the person behind slug. The visibility check runs
// before any gyma is read.
func (s *FeedService) Profile(ctx context.Context, viewerID *uint, slug string, exclude []uint) ([]models.FeedEntry, error) {
	profile, err := s.gate.open(ctx, viewerID, slug)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, FeedProfile, repository.FeedQuery{
		OwnerIDs:  []uint{profile.person.ID},
		Exclude:   exclude,
		Limit:     ProfilePageSize,
		WithOwner: true,
	})
}

func (s *FeedService) list(ctx context.Context, variant string, q repository.FeedQuery) ([]models.FeedEntry, error) {
	start := time.Now()
	span, ctx := observability.NewSpan(ctx, "feed."+variant,
		attribute.Int("feed.limit", q.Limit),
		attribute.Int("feed.excluded", len(q.Exclude)),
	)
	defer span.End()

	gymas, err := s.gymas.ListCompleted(ctx, q)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	entries := make([]models.FeedEntry, 0, len(gymas))
	for i := range gymas {
		entries = append(entries, models.NewFeedEntry(&gymas[i], q.WithOwner))
	}
	span.AddAttributes(attribute.Int("feed.size", len(entries)))
	observability.ObserveFeed(variant, len(entries), start)
	return entries, nil
}
