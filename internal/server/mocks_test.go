package server

import (
	"context"

	"gyma/internal/models"
	"gyma/internal/service"
	"gyma/internal/session"

	"github.com/stretchr/testify/mock"
)

type stubSessions map[string]uint

func (s stubSessions) Get(_ context.Context, token string) (*session.Session, error) {
	id, ok := s[token]
	if !ok {
		return nil, session.ErrInvalid
	}
	return &session.Session{UserID: id}, nil
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, input service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuth) Verify(ctx context.Context, code string) (*models.User, error) {
	args := m.Called(ctx, code)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuth) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuth) Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*service.LoginResult)
	return res, args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockPersons struct{ mock.Mock }

func (m *mockPersons) Upsert(ctx context.Context, callerID uint, input service.PersonInput) (*models.Person, bool, error) {
	args := m.Called(ctx, callerID, input)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Bool(1), args.Error(2)
}

type mockPictures struct{ mock.Mock }

func (m *mockPictures) UploadProfilePicture(ctx context.Context, callerID uint, in service.PictureInput) (*models.Person, error) {
	args := m.Called(ctx, callerID, in)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) View(ctx context.Context, viewerID *uint, slug string) (*models.Profile, error) {
	args := m.Called(ctx, viewerID, slug)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfiles) Me(ctx context.Context, callerID uint) (*models.MyProfile, error) {
	args := m.Called(ctx, callerID)
	me, _ := args.Get(0).(*models.MyProfile)
	return me, args.Error(1)
}

func (m *mockProfiles) Search(ctx context.Context, viewerID *uint, query string) ([]models.PersonSummary, error) {
	args := m.Called(ctx, viewerID, query)
	out, _ := args.Get(0).([]models.PersonSummary)
	return out, args.Error(1)
}

type mockFriendships struct{ mock.Mock }

func (m *mockFriendships) result(ctx context.Context, op string, callerID uint, slug string) (*service.FriendshipResult, error) {
	args := m.MethodCalled(op, ctx, callerID, slug)
	res, _ := args.Get(0).(*service.FriendshipResult)
	return res, args.Error(1)
}

func (m *mockFriendships) Request(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error) {
	return m.result(ctx, "Request", callerID, slug)
}

func (m *mockFriendships) Accept(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error) {
	return m.result(ctx, "Accept", callerID, slug)
}

func (m *mockFriendships) Block(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error) {
	return m.result(ctx, "Block", callerID, slug)
}

func (m *mockFriendships) Unblock(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error) {
	return m.result(ctx, "Unblock", callerID, slug)
}

func (m *mockFriendships) Remove(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error) {
	return m.result(ctx, "Remove", callerID, slug)
}

type mockFeeds struct{ mock.Mock }

func entries(args mock.Arguments) ([]models.FeedEntry, error) {
	out, _ := args.Get(0).([]models.FeedEntry)
	return out, args.Error(1)
}

func (m *mockFeeds) Mine(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error) {
	return entries(m.Called(ctx, callerID, exclude))
}

func (m *mockFeeds) Gymbros(ctx context.Context, callerID uint, exclude []uint) ([]models.FeedEntry, error) {
	return entries(m.Called(ctx, callerID, exclude))
}

func (m *mockFeeds) Public(ctx context.Context, viewerID *uint, exclude []uint) ([]models.FeedEntry, error) {
	return entries(m.Called(ctx, viewerID, exclude))
}

func (m *mockFeeds) PublicAnonymous(ctx context.Context, exclude []uint) ([]models.FeedEntry, error) {
	return entries(m.Called(ctx, exclude))
}

func (m *mockFeeds) Profile(ctx context.Context, viewerID *uint, slug string, exclude []uint) ([]models.FeedEntry, error) {
	return entries(m.Called(ctx, viewerID, slug, exclude))
}

type mockGymas struct{ mock.Mock }

func (m *mockGymas) Start(ctx context.Context, token string) (*models.Gyma, error) {
	args := m.Called(ctx, token)
	g, _ := args.Get(0).(*models.Gyma)
	return g, args.Error(1)
}

func (m *mockGymas) End(ctx context.Context, token string) (*models.Gyma, error) {
	args := m.Called(ctx, token)
	g, _ := args.Get(0).(*models.Gyma)
	return g, args.Error(1)
}

func (m *mockGymas) AddExercise(ctx context.Context, token string, input service.ExerciseInput) (*models.Exercise, error) {
	args := m.Called(ctx, token, input)
	ex, _ := args.Get(0).(*models.Exercise)
	return ex, args.Error(1)
}

func (m *mockGymas) Delete(ctx context.Context, callerID, gymaID uint) error {
	return m.Called(ctx, callerID, gymaID).Error(0)
}
