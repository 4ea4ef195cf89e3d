package repository

import (
	"context"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for account and email verification storage.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateWithVerification(ctx context.Context, user *models.User, code string) error
	Verify(ctx context.Context, code string) (*models.User, error)
	ReplaceVerificationCode(ctx context.Context, userID uint, code string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("User", id))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("User", email))
	}
	return &user, nil
}

// CreateWithVerification stores the user and its verification code atomically.
func (r *userRepository) CreateWithVerification(ctx context.Context, user *models.User, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isDuplicateKey(err) {
				return models.NewConflictError("Email already registered").WithReason(models.ReasonEmailTaken)
			}
			return models.NewInternalError(err)
		}
		verification := &models.UserVerification{UserID: user.ID, Code: code}
		if err := tx.Create(verification).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// Verify marks the account owning code as verified and consumes the code.
func (r *userRepository) Verify(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var verification models.UserVerification
		if err := tx.Where("verification_code = ?", code).First(&verification).Error; err != nil {
			return notFoundOr(err, models.NewNotFoundError("Verification code", code))
		}
		if err := tx.First(&user, verification.UserID).Error; err != nil {
			return notFoundOr(err, models.NewNotFoundError("User", verification.UserID))
		}
		if err := tx.Model(&user).Update("email_verified", true).Error; err != nil {
			return models.NewInternalError(err)
		}
		user.EmailVerified = true
		if err := tx.Delete(&models.UserVerification{}, verification.UserID).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ReplaceVerificationCode(ctx context.Context, userID uint, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.UserVerification{}, userID).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Create(&models.UserVerification{UserID: userID, Code: code}).Error; err != nil {
			if isDuplicateKey(err) {
				return models.NewConflictError("Verification code collision")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
}
