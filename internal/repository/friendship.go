package repository

import (
	"context"
	"errors"
	"time"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// FriendshipRepository is the relationship store. Every edge is unique per
// unordered pair; FindEdge is the only symmetric lookup and ReparentToBlocker
// is the only place the edge direction is rewritten.
type FriendshipRepository interface {
	FindEdge(ctx context.Context, a, b uint) (*models.Friendship, error)
	FindDirectedEdge(ctx context.Context, initiator, target uint) (*models.Friendship, error)
	Create(ctx context.Context, initiator, target uint) (*models.Friendship, error)
	SetStatus(ctx context.Context, edge *models.Friendship, status models.FriendshipStatus) error
	ReparentToBlocker(ctx context.Context, edge *models.Friendship, blockerID uint) error
	Remove(ctx context.Context, edge *models.Friendship) error
	ListAccepted(ctx context.Context, personID uint) ([]models.Person, error)
	ListAcceptedIDs(ctx context.Context, personID uint) ([]uint, error)
	ListIncomingPending(ctx context.Context, personID uint) ([]models.Person, error)
	ListBlockedByMe(ctx context.Context, personID uint) ([]models.Person, error)
	// ListBlockedIDs returns everyone in a blocked edge with personID, in either direction.
	ListBlockedIDs(ctx context.Context, personID uint) ([]uint, error)
	// Transaction runs fn against a store bound to a single database transaction.
	Transaction(ctx context.Context, fn func(store FriendshipRepository) error) error
}

type friendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository creates a new relationship store
func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Transaction(ctx context.Context, fn func(store FriendshipRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&friendshipRepository{db: tx})
	})
}

// FindEdge returns the edge between a and b regardless of direction, or nil.
// A self pair never matches.
func (r *friendshipRepository) FindEdge(ctx context.Context, a, b uint) (*models.Friendship, error) {
	if a == b {
		return nil, nil
	}
	low, high := models.CanonicalPair(a, b)
	return r.first(ctx, "pair_low = ? AND pair_high = ?", low, high)
}

func (r *friendshipRepository) FindDirectedEdge(ctx context.Context, initiator, target uint) (*models.Friendship, error) {
	if initiator == target {
		return nil, nil
	}
	return r.first(ctx, "person_id = ? AND friend_id = ?", initiator, target)
}

func (r *friendshipRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Friendship, error) {
	var edge models.Friendship
	if err := r.db.WithContext(ctx).Where(query, args...).First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

// Create stores a pending edge from initiator to target. A second edge for the
// same unordered pair fails on the unique pair index and surfaces as Conflict.
func (r *friendshipRepository) Create(ctx context.Context, initiator, target uint) (*models.Friendship, error) {
	if initiator == target {
		return nil, models.NewValidationError("Cannot befriend yourself").WithReason(models.ReasonSelfFriendship)
	}
	edge := &models.Friendship{
		PersonID: initiator,
		FriendID: target,
		Status:   models.FriendshipStatusPending,
		Since:    time.Now().UTC().Truncate(24 * time.Hour),
	}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, models.NewConflictError("Friendship already exists").WithReason(models.ReasonDuplicate)
		}
		return nil, models.NewInternalError(err)
	}
	return edge, nil
}

func (r *friendshipRepository) SetStatus(ctx context.Context, edge *models.Friendship, status models.FriendshipStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ?", edge.ID).
		UpdateColumns(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friendship", edge.ID).WithReason(models.ReasonEdgeNotFound)
	}
	edge.Status = status
	return nil
}

// ReparentToBlocker makes blockerID the person_id of the edge and marks it blocked.
// The pair columns are unchanged by the swap, so hooks are skipped.
func (r *friendshipRepository) ReparentToBlocker(ctx context.Context, edge *models.Friendship, blockerID uint) error {
	if !edge.Involves(blockerID) {
		return models.NewValidationError("Blocker is not part of the friendship")
	}
	blocked := edge.Other(blockerID)
	res := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ?", edge.ID).
		UpdateColumns(map[string]interface{}{
			"person_id":  blockerID,
			"friend_id":  blocked,
			"status":     models.FriendshipStatusBlocked,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friendship", edge.ID).WithReason(models.ReasonEdgeNotFound)
	}
	edge.PersonID = blockerID
	edge.FriendID = blocked
	edge.Status = models.FriendshipStatusBlocked
	return nil
}

func (r *friendshipRepository) Remove(ctx context.Context, edge *models.Friendship) error {
	res := r.db.WithContext(ctx).Delete(&models.Friendship{}, edge.ID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Friendship", edge.ID).WithReason(models.ReasonEdgeNotFound)
	}
	return nil
}

// ListAccepted returns the persons on the other end of every accepted edge.
func (r *friendshipRepository) ListAccepted(ctx context.Context, personID uint) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Select("persons.*").
		Joins("JOIN friendships f ON (persons.id = f.person_id OR persons.id = f.friend_id)").
		Where("f.status = ? AND (f.person_id = ? OR f.friend_id = ?) AND persons.id <> ?",
			models.FriendshipStatusAccepted, personID, personID, personID).
		Order("persons.id").
		Find(&persons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return persons, nil
}

func (r *friendshipRepository) ListAcceptedIDs(ctx context.Context, personID uint) ([]uint, error) {
	return r.otherIDs(ctx, personID, models.FriendshipStatusAccepted)
}

func (r *friendshipRepository) ListBlockedIDs(ctx context.Context, personID uint) ([]uint, error) {
	return r.otherIDs(ctx, personID, models.FriendshipStatusBlocked)
}

func (r *friendshipRepository) otherIDs(ctx context.Context, personID uint, status models.FriendshipStatus) ([]uint, error) {
	var edges []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (person_id = ? OR friend_id = ?)", status, personID, personID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(edges))
	for i := range edges {
		if other := edges[i].Other(personID); other != personID {
			ids = append(ids, other)
		}
	}
	return ids, nil
}

// ListIncomingPending returns the initiators of pending edges aimed at personID.
func (r *friendshipRepository) ListIncomingPending(ctx context.Context, personID uint) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Select("persons.*").
		Joins("JOIN friendships f ON persons.id = f.person_id").
		Where("f.friend_id = ? AND f.status = ? AND persons.id <> ?", personID, models.FriendshipStatusPending, personID).
		Order("f.id").
		Find(&persons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return persons, nil
}

// ListBlockedByMe returns the persons personID has blocked.
func (r *friendshipRepository) ListBlockedByMe(ctx context.Context, personID uint) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Select("persons.*").
		Joins("JOIN friendships f ON persons.id = f.friend_id").
		Where("f.person_id = ? AND f.status = ? AND persons.id <> ?", personID, models.FriendshipStatusBlocked, personID).
		Order("f.id").
		Find(&persons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return persons, nil
}
