package repository

import (
	"context"
	"time"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// FeedQuery selects completed gymas for one of the feeds.
type FeedQuery struct {
	// OwnerIDs restricts the result to these owners. Nil means any owner.
	OwnerIDs []uint
	// PublicOnly keeps only owners whose sharing preference is pub.
	PublicOnly bool
	// ExcludeOwners drops gymas of these owners.
	ExcludeOwners []uint
	// Exclude lists gyma ids the client already holds.
	Exclude []uint
	Limit   int
	// WithOwner preloads the owner person for the feed summary.
	WithOwner bool
}

// GymaRepository defines the interface for gyma and exercise storage
type GymaRepository interface {
	Create(ctx context.Context, gyma *models.Gyma) error
	GetByID(ctx context.Context, id uint) (*models.Gyma, error)
	SetDeparture(ctx context.Context, id uint, at time.Time) error
	AddExercise(ctx context.Context, exercise *models.Exercise) error
	Delete(ctx context.Context, id uint) error
	ListCompleted(ctx context.Context, q FeedQuery) ([]models.Gyma, error)
}

type gymaRepository struct {
	db *gorm.DB
}

// NewGymaRepository creates a new gyma repository
func NewGymaRepository(db *gorm.DB) GymaRepository {
	return &gymaRepository{db: db}
}

func (r *gymaRepository) Create(ctx context.Context, gyma *models.Gyma) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(gyma).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *gymaRepository) GetByID(ctx context.Context, id uint) (*models.Gyma, error) {
	var gyma models.Gyma
	if err := r.db.WithContext(ctx).
		Preload("Exercises", func(db *gorm.DB) *gorm.DB { return db.Order("exercises.id") }).
		First(&gyma, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Gyma", id))
	}
	return &gyma, nil
}

// SetDeparture ends an in-progress gyma. A gyma that already has a departure
// time is left untouched and reported as Conflict.
func (r *gymaRepository) SetDeparture(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Gyma{}).
		Where("id = ? AND time_of_leaving IS NULL", id).
		Update("time_of_leaving", at)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Gyma already finished").WithReason(models.ReasonGymaFinished)
	}
	return nil
}

func (r *gymaRepository) AddExercise(ctx context.Context, exercise *models.Exercise) error {
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the gyma and its exercises.
func (r *gymaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gyma_id = ?", id).Delete(&models.Exercise{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Gyma{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Gyma", id)
		}
		return nil
	})
}

// ListCompleted returns finished gymas newest first. Ties on the departure
// time are broken by id so pages stay stable.
func (r *gymaRepository) ListCompleted(ctx context.Context, q FeedQuery) ([]models.Gyma, error) {
	var gymas []models.Gyma
	if q.OwnerIDs != nil && len(q.OwnerIDs) == 0 {
		return gymas, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.Gyma{}).
		Select("gymas.*").
		Where("gymas.time_of_leaving IS NOT NULL")
	if q.OwnerIDs != nil {
		query = query.Where("gymas.user_id IN ?", q.OwnerIDs)
	}
	if q.PublicOnly {
		query = query.
			Joins("JOIN persons p ON p.id = gymas.user_id").
			Where("p.gyma_share = ?", models.SharePub)
	}
	if len(q.ExcludeOwners) > 0 {
		query = query.Where("gymas.user_id NOT IN ?", q.ExcludeOwners)
	}
	if len(q.Exclude) > 0 {
		query = query.Where("gymas.id NOT IN ?", q.Exclude)
	}
	query = query.Preload("Exercises", func(db *gorm.DB) *gorm.DB { return db.Order("exercises.id") })
	if q.WithOwner {
		query = query.Preload("Owner")
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.
		Order("gymas.time_of_leaving DESC").
		Order("gymas.id DESC").
		Find(&gymas).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return gymas, nil
}
