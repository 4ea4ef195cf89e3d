package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gyma/internal/events"
	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db          *gorm.DB
	users       repository.UserRepository
	persons     repository.PersonRepository
	friendships repository.FriendshipRepository
	gymas       repository.GymaRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
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
	return &fixture{
		db:          db,
		users:       repository.NewUserRepository(db),
		persons:     repository.NewPersonRepository(db),
		friendships: repository.NewFriendshipRepository(db),
		gymas:       repository.NewGymaRepository(db),
	}
}

// user creates a verified account without a profile.
func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", EmailVerified: true}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) person(t *testing.T, slug string, share models.SharePreference) *models.Person {
	t.Helper()
	u := f.user(t, slug+"@example.com")
	p := &models.Person{
		ID:         u.ID,
		ProfileURL: slug,
		FirstName:  slug,
		LastName:   "Test",
		Sex:        models.SexOther,
		GymaShare:  share,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) edge(t *testing.T, from, to *models.Person, status models.FriendshipStatus) {
	t.Helper()
	e := &models.Friendship{PersonID: from.ID, FriendID: to.ID, Status: status, Since: time.Now()}
	require.NoError(t, f.db.Create(e).Error)
}

// completedGyma stores a finished gyma; a larger offset is a later departure.
func (f *fixture) completedGyma(t *testing.T, owner *models.Person, offset time.Duration) *models.Gyma {
	t.Helper()
	leaving := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Add(offset)
	g := &models.Gyma{UserID: owner.ID, TimeOfArrival: leaving.Add(-time.Hour), TimeOfLeaving: &leaving}
	require.NoError(t, f.db.Omit("Owner").Create(g).Error)
	return g
}

func newSessionStore(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.NewStore(rdb, time.Hour, 24*time.Hour), mr
}

func ptr[T any](v T) *T { return &v }

func requireCode(t *testing.T, err error, code, reason string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	if reason != "" {
		require.Equal(t, reason, appErr.Reason)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// personRepoStub fails every call unless the matching func is set.
type personRepoStub struct {
	getByIDFn            func(context.Context, uint) (*models.Person, error)
	getByProfileURLFn    func(context.Context, string) (*models.Person, error)
	profileURLExistsFn   func(context.Context, string) (bool, error)
	createFn             func(context.Context, *models.Person) error
	updateFn             func(context.Context, *models.Person) error
	setPicturePathsFn    func(context.Context, uint, string, string) error
	searchByProfileURLFn func(context.Context, string, int) ([]models.Person, error)
	searchByNameFn       func(context.Context, string, string, int) ([]models.Person, error)
}

var errStub = errors.New("stub not configured")

func (s *personRepoStub) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	if s.getByIDFn == nil {
		return nil, errStub
	}
	return s.getByIDFn(ctx, id)
}
func (s *personRepoStub) GetByProfileURL(ctx context.Context, slug string) (*models.Person, error) {
	if s.getByProfileURLFn == nil {
		return nil, errStub
	}
	return s.getByProfileURLFn(ctx, slug)
}
func (s *personRepoStub) ProfileURLExists(ctx context.Context, slug string) (bool, error) {
	if s.profileURLExistsFn == nil {
		return false, errStub
	}
	return s.profileURLExistsFn(ctx, slug)
}
func (s *personRepoStub) Create(ctx context.Context, p *models.Person) error {
	if s.createFn == nil {
		return errStub
	}
	return s.createFn(ctx, p)
}
func (s *personRepoStub) Update(ctx context.Context, p *models.Person) error {
	if s.updateFn == nil {
		return errStub
	}
	return s.updateFn(ctx, p)
}
func (s *personRepoStub) SetPicturePaths(ctx context.Context, id uint, large, medium string) error {
	if s.setPicturePathsFn == nil {
		return errStub
	}
	return s.setPicturePathsFn(ctx, id, large, medium)
}
func (s *personRepoStub) SearchByProfileURL(ctx context.Context, q string, limit int) ([]models.Person, error) {
	if s.searchByProfileURLFn == nil {
		return nil, errStub
	}
	return s.searchByProfileURLFn(ctx, q, limit)
}
func (s *personRepoStub) SearchByName(ctx context.Context, first, last string, limit int) ([]models.Person, error) {
	if s.searchByNameFn == nil {
		return nil, errStub
	}
	return s.searchByNameFn(ctx, first, last, limit)
}
