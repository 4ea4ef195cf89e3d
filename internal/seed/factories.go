// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"time"

	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Password123"

var exerciseNames = map[models.ExerciseType][]string{
	models.ExerciseTypeGains:  {"Bench press", "Squat", "Deadlift", "Overhead press", "Barbell row", "Pull up", "Bicep curl"},
	models.ExerciseTypeCardio: {"Treadmill", "Rowing machine", "Bike", "Stairmaster", "Cross trainer"},
	models.ExerciseTypeOther:  {"Stretching", "Yoga", "Sauna", "Foam rolling"},
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	db          *gorm.DB
	faker       *gofakeit.Faker
	persons     *service.PersonService
	friendships repository.FriendshipRepository
	gymas       repository.GymaRepository
	cost        int
}

// NewFactory creates a Factory bound to db. A fixed seed gives reproducible data.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{
		db:          db,
		faker:       gofakeit.New(seed),
		persons:     service.NewPersonService(repository.NewPersonRepository(db)),
		friendships: repository.NewFriendshipRepository(db),
		gymas:       repository.NewGymaRepository(db),
		cost:        bcrypt.DefaultCost,
	}
}

// CreateUser persists a verified account with DefaultPassword.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.cost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:         fmt.Sprintf("%s.%d@example.com", f.faker.Username(), f.faker.Number(1000, 9999)),
		Password:      string(hashed),
		AccountType:   models.AccountTypeUser,
		EmailVerified: true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreatePerson creates the profile of user with the given sharing preference.
func (f *Factory) CreatePerson(ctx context.Context, user *models.User, share models.SharePreference) (*models.Person, error) {
	dob := f.faker.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC))
	person, _, err := f.persons.Upsert(ctx, user.ID, service.PersonInput{
		FirstName:   f.faker.FirstName(),
		LastName:    f.faker.LastName(),
		DateOfBirth: dob.Format("2006-01-02"),
		Sex:         f.faker.RandomString([]string{"m", "f", "o"}),
		City:        f.faker.City(),
		ProfileText: f.faker.Sentence(12),
		GymaShare:   string(share),
	})
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return person, nil
}

// Connect stores an edge from a to b in the given status. For blocked
// edges a is the blocker.
func (f *Factory) Connect(ctx context.Context, a, b *models.Person, status models.FriendshipStatus) (*models.Friendship, error) {
	edge, err := f.friendships.Create(ctx, a.ID, b.ID)
	if err != nil {
		return nil, err
	}
	if status != models.FriendshipStatusPending {
		if err := f.friendships.SetStatus(ctx, edge, status); err != nil {
			return nil, err
		}
		edge.Status = status
	}
	return edge, nil
}

// CreateCompletedGyma stores a finished visit with a few exercises that
// respect the measures of their category.
func (f *Factory) CreateCompletedGyma(ctx context.Context, owner *models.Person, arrival time.Time) (*models.Gyma, error) {
	leaving := arrival.Add(time.Duration(f.faker.Number(30, 120)) * time.Minute)
	gyma := &models.Gyma{
		UserID:        owner.ID,
		TimeOfArrival: arrival,
		TimeOfLeaving: &leaving,
	}
	for i, n := 0, f.faker.Number(1, 5); i < n; i++ {
		gyma.Exercises = append(gyma.Exercises, f.exercise())
	}
	if err := f.gymas.Create(ctx, gyma); err != nil {
		return nil, err
	}
	return gyma, nil
}

func (f *Factory) exercise() models.Exercise {
	kind := models.ExerciseType(f.faker.RandomString([]string{
		string(models.ExerciseTypeGains), string(models.ExerciseTypeGains),
		string(models.ExerciseTypeCardio), string(models.ExerciseTypeOther),
	}))
	ex := models.Exercise{
		Name: f.faker.RandomString(exerciseNames[kind]),
		Type: kind,
	}
	switch kind {
	case models.ExerciseTypeGains:
		ex.Count = intPtr(f.faker.Number(5, 12))
		ex.Sets = intPtr(f.faker.Number(2, 5))
		ex.Weight = floatPtr(float64(f.faker.Number(4, 60)) * 2.5)
	case models.ExerciseTypeCardio:
		ex.Minutes = intPtr(f.faker.Number(10, 45))
		ex.Km = floatPtr(float64(f.faker.Number(10, 150)) / 10)
		ex.Level = intPtr(f.faker.Number(1, 10))
	default:
		ex.Minutes = intPtr(f.faker.Number(5, 30))
	}
	return ex
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
