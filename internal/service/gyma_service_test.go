package service

import (
	"context"
	"testing"
	"time"

	"gyma/internal/events"
	"gyma/internal/models"
	"gyma/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gymaFixture struct {
	*fixture
	svc   *GymaService
	pub   *recordingPublisher
	token string
	owner *models.Person
	clock time.Time
}

func newGymaFixture(t *testing.T) *gymaFixture {
	t.Helper()
	f := newFixture(t)
	store, _ := newSessionStore(t)
	pub := &recordingPublisher{}
	g := &gymaFixture{
		fixture: f,
		svc:     NewGymaService(store, f.gymas, f.persons, pub),
		pub:     pub,
		owner:   f.person(t, "lifter", models.SharePub),
		clock:   time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	g.svc.now = func() time.Time { return g.clock }

	token, err := store.Create(context.Background(), g.owner.ID, false)
	require.NoError(t, err)
	g.token = token
	return g
}

func TestGymaService_StartAddEnd(t *testing.T) {
	g := newGymaFixture(t)
	ctx := context.Background()

	started, err := g.svc.Start(ctx, g.token)
	require.NoError(t, err)
	assert.Equal(t, g.owner.ID, started.UserID)
	assert.True(t, started.InProgress())

	_, err = g.svc.Start(ctx, g.token)
	requireCode(t, err, models.CodeConflict, models.ReasonGymaInProgress)

	ex, err := g.svc.AddExercise(ctx, g.token, ExerciseInput{
		Name: "Bench press", Type: "gains", Count: ptr(8), Sets: ptr(3), Weight: ptr(80.0),
	})
	require.NoError(t, err)
	assert.Equal(t, started.ID, ex.GymaID)

	_, err = g.svc.AddExercise(ctx, g.token, ExerciseInput{Name: "Bike", Type: "cardio", Minutes: ptr(30), Km: ptr(12.5)})
	require.NoError(t, err)

	g.clock = g.clock.Add(90 * time.Minute)
	ended, err := g.svc.End(ctx, g.token)
	require.NoError(t, err)
	require.NotNil(t, ended.TimeOfLeaving)
	assert.Equal(t, 90*time.Minute, ended.TimeOfLeaving.Sub(ended.TimeOfArrival))

	stored, err := g.gymas.GetByID(ctx, started.ID)
	require.NoError(t, err)
	assert.False(t, stored.InProgress())
	assert.Len(t, stored.Exercises, 2)

	_, err = g.svc.End(ctx, g.token)
	requireCode(t, err, models.CodeNotFound, models.ReasonGymaNotStarted)
	_, err = g.svc.AddExercise(ctx, g.token, ExerciseInput{Name: "Late", Type: "other"})
	requireCode(t, err, models.CodeNotFound, models.ReasonGymaNotStarted)

	require.Len(t, g.pub.events, 1)
	assert.Equal(t, events.TypeGymaCompleted, g.pub.events[0].Type)
	assert.Equal(t, started.ID, g.pub.events[0].GymaID)

	next, err := g.svc.Start(ctx, g.token)
	require.NoError(t, err)
	assert.NotEqual(t, started.ID, next.ID)
}

func TestGymaService_EndRejectsDepartureBeforeArrival(t *testing.T) {
	g := newGymaFixture(t)
	ctx := context.Background()

	_, err := g.svc.Start(ctx, g.token)
	require.NoError(t, err)

	g.clock = g.clock.Add(-time.Minute)
	_, err = g.svc.End(ctx, g.token)
	requireCode(t, err, models.CodeValidation, "")
}

func TestGymaService_EndOnFinishedGymaConflicts(t *testing.T) {
	g := newGymaFixture(t)
	ctx := context.Background()

	started, err := g.svc.Start(ctx, g.token)
	require.NoError(t, err)
	require.NoError(t, g.gymas.SetDeparture(ctx, started.ID, g.clock.Add(time.Hour)))

	_, err = g.svc.End(ctx, g.token)
	requireCode(t, err, models.CodeConflict, models.ReasonGymaFinished)
}

func TestGymaService_ExerciseMeasures(t *testing.T) {
	g := newGymaFixture(t)
	ctx := context.Background()
	_, err := g.svc.Start(ctx, g.token)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input ExerciseInput
		ok    bool
	}{
		{"gains with weight", ExerciseInput{Name: "Squat", Type: "gains", Weight: ptr(100.0)}, true},
		{"gains with km", ExerciseInput{Name: "Squat", Type: "gains", Km: ptr(1.0)}, false},
		{"cardio with sets", ExerciseInput{Name: "Run", Type: "cardio", Sets: ptr(2)}, false},
		{"cardio with minutes", ExerciseInput{Name: "Run", Type: "cardio", Minutes: ptr(20), Level: ptr(4)}, true},
		{"other with anything", ExerciseInput{Name: "Yoga", Type: "other", Minutes: ptr(20), Count: ptr(1)}, true},
		{"unknown type", ExerciseInput{Name: "Nap", Type: "rest"}, false},
		{"missing name", ExerciseInput{Type: "other"}, false},
		{"negative weight", ExerciseInput{Name: "Curl", Type: "gains", Weight: ptr(-1.0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.svc.AddExercise(ctx, g.token, tt.input)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			requireCode(t, err, models.CodeValidation, "")
		})
	}
}

func TestGymaService_StartRequiresProfileAndSession(t *testing.T) {
	f := newFixture(t)
	store, _ := newSessionStore(t)
	svc := NewGymaService(store, f.gymas, f.persons, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, session.EncodeToken("0123456789abcdef0123456789abcdef"))
	requireCode(t, err, models.CodeUnauthorized, models.ReasonSessionInvalid)

	u := f.user(t, "noprofile@example.com")
	token, err := store.Create(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = svc.Start(ctx, token)
	requireCode(t, err, models.CodeUnauthorized, models.ReasonProfileRequired)
}

func TestGymaService_Delete(t *testing.T) {
	g := newGymaFixture(t)
	ctx := context.Background()

	mine := g.completedGyma(t, g.owner, time.Minute)
	other := g.person(t, "other", models.SharePub)
	theirs := g.completedGyma(t, other, time.Minute)

	err := g.svc.Delete(ctx, g.owner.ID, theirs.ID)
	requireCode(t, err, models.CodeForbidden, models.ReasonNotAuthorized)

	require.NoError(t, g.svc.Delete(ctx, g.owner.ID, mine.ID))
	_, err = g.gymas.GetByID(ctx, mine.ID)
	requireCode(t, err, models.CodeNotFound, "")

	err = g.svc.Delete(ctx, g.owner.ID, mine.ID)
	requireCode(t, err, models.CodeNotFound, "")
}
