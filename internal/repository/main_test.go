package repository

import (
	"testing"
	"time"

	"gyma/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserVerification{},
		&models.Person{},
		&models.Friendship{},
		&models.Gyma{},
		&models.Exercise{},
	))
	return db
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for storage failure paths.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func createPerson(t *testing.T, db *gorm.DB, slug string, share models.SharePreference) *models.Person {
	t.Helper()
	user := &models.User{Email: slug + "@example.com", Password: "x", EmailVerified: true}
	require.NoError(t, db.Create(user).Error)
	person := &models.Person{
		ID:         user.ID,
		ProfileURL: slug,
		FirstName:  slug,
		LastName:   "Test",
		Sex:        models.SexOther,
		GymaShare:  share,
	}
	require.NoError(t, db.Create(person).Error)
	return person
}

func createFriendship(t *testing.T, db *gorm.DB, from, to uint, status models.FriendshipStatus) *models.Friendship {
	t.Helper()
	edge := &models.Friendship{PersonID: from, FriendID: to, Status: status, Since: time.Now()}
	require.NoError(t, db.Create(edge).Error)
	return edge
}

// createCompletedGyma stores a finished gyma whose departure is offset from a fixed base.
func createCompletedGyma(t *testing.T, db *gorm.DB, ownerID uint, offset time.Duration) *models.Gyma {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	leaving := base.Add(offset)
	gyma := &models.Gyma{
		UserID:        ownerID,
		TimeOfArrival: leaving.Add(-time.Hour),
		TimeOfLeaving: &leaving,
	}
	require.NoError(t, db.Omit("Owner").Create(gyma).Error)
	return gyma
}
