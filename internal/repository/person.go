package repository

import (
	"context"
	"strings"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// PersonRepository defines the interface for profile storage
type PersonRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	GetByProfileURL(ctx context.Context, profileURL string) (*models.Person, error)
	ProfileURLExists(ctx context.Context, profileURL string) (bool, error)
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
	SetPicturePaths(ctx context.Context, id uint, large, medium string) error
	SearchByProfileURL(ctx context.Context, query string, limit int) ([]models.Person, error)
	SearchByName(ctx context.Context, first, last string, limit int) ([]models.Person, error)
}

type personRepository struct {
	db *gorm.DB
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *gorm.DB) PersonRepository {
	return &personRepository{db: db}
}

func (r *personRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewProfileNotFoundError())
	}
	return &person, nil
}

func (r *personRepository) GetByProfileURL(ctx context.Context, profileURL string) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).Where("profile_url = ?", profileURL).First(&person).Error; err != nil {
		return nil, notFoundOr(err, models.NewProfileNotFoundError())
	}
	return &person, nil
}

func (r *personRepository) ProfileURLExists(ctx context.Context, profileURL string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("profile_url = ?", profileURL).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *personRepository) Create(ctx context.Context, person *models.Person) error {
	if err := r.db.WithContext(ctx).Create(person).Error; err != nil {
		if isDuplicateKey(err) {
			return models.NewConflictError("Profile already exists").WithReason(models.ReasonDuplicate)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *personRepository) Update(ctx context.Context, person *models.Person) error {
	if err := r.db.WithContext(ctx).Save(person).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *personRepository) SetPicturePaths(ctx context.Context, id uint, large, medium string) error {
	res := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"pf_path_l": large, "pf_path_m": medium})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewProfileNotFoundError()
	}
	return nil
}

// SearchByProfileURL returns non-solo persons whose slug contains query.
func (r *personRepository) SearchByProfileURL(ctx context.Context, query string, limit int) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Where("profile_url LIKE ? AND gyma_share <> ?", "%"+escapeLike(query)+"%", models.ShareSolo).
		Order("profile_url").
		Limit(limit).
		Find(&persons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return persons, nil
}

// SearchByName matches first and last name, case-insensitively, in the given order.
func (r *personRepository) SearchByName(ctx context.Context, first, last string, limit int) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? AND LOWER(last_name) LIKE ? AND gyma_share <> ?",
			"%"+escapeLike(strings.ToLower(first))+"%",
			"%"+escapeLike(strings.ToLower(last))+"%",
			models.ShareSolo).
		Order("id").
		Limit(limit).
		Find(&persons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return persons, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
