package service

import (
	"context"
	"fmt"
	"time"

	"gyma/internal/events"
	"gyma/internal/models"
	"gyma/internal/observability"
	"gyma/internal/repository"
	"gyma/internal/session"
	"gyma/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// SessionStore is the part of the session store the services use.
type SessionStore interface {
	Create(ctx context.Context, userID uint, trustDevice bool) (string, error)
	Get(ctx context.Context, token string) (*session.Session, error)
	SetGymaID(ctx context.Context, token string, gymaID uint) error
	ClearGymaID(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
}

// ExerciseInput is one exercise logged during a gyma.
type ExerciseInput struct {
	Name        string   `json:"exercise_name" validate:"required,max=64"`
	Type        string   `json:"exercise_type" validate:"required,oneof=gains cardio other"`
	Count       *int     `json:"count" validate:"omitempty,gte=0"`
	Sets        *int     `json:"sets" validate:"omitempty,gte=0"`
	Weight      *float64 `json:"weight" validate:"omitempty,gte=0"`
	Minutes     *int     `json:"minutes" validate:"omitempty,gte=0"`
	Km          *float64 `json:"km" validate:"omitempty,gte=0"`
	Level       *int     `json:"level" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=64"`
}

// checkMeasures rejects measures that do not belong to the exercise type.
func (in ExerciseInput) checkMeasures() error {
	strength := in.Count != nil || in.Sets != nil || in.Weight != nil
	endurance := in.Minutes != nil || in.Km != nil

	switch models.ExerciseType(in.Type) {
	case models.ExerciseTypeGains:
		if endurance {
			return models.NewValidationError("gains exercises take count, sets and weight only")
		}
	case models.ExerciseTypeCardio:
		if strength {
			return models.NewValidationError("cardio exercises take minutes and km only")
		}
	}
	return nil
}

// GymaService tracks gym visits. The gyma in progress lives on the session.
type GymaService struct {
	sessions  SessionStore
	gymas     repository.GymaRepository
	persons   repository.PersonRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewGymaService returns a new GymaService. A nil publisher drops events.
func NewGymaService(sessions SessionStore, gymas repository.GymaRepository, persons repository.PersonRepository, publisher events.Publisher) *GymaService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &GymaService{
		sessions:  sessions,
		gymas:     gymas,
		persons:   persons,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a gyma for the session owner and binds it to the session.
func (s *GymaService) Start(ctx context.Context, token string) (*models.Gyma, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := s.persons.GetByID(ctx, sess.UserID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Create a profile first").WithReason(models.ReasonProfileRequired)
		}
		return nil, err
	}

	if sess.GymaID != 0 {
		current, err := s.gymas.GetByID(ctx, sess.GymaID)
		switch {
		case err == nil && current.InProgress():
			return nil, models.NewConflictError("A gyma is already in progress").WithReason(models.ReasonGymaInProgress)
		case err != nil && !models.IsCode(err, models.CodeNotFound):
			return nil, err
		}
	}

	gyma := &models.Gyma{UserID: sess.UserID, TimeOfArrival: s.now()}
	if err := s.gymas.Create(ctx, gyma); err != nil {
		return nil, err
	}
	if err := s.sessions.SetGymaID(ctx, token, gyma.ID); err != nil {
		return nil, err
	}
	gyma.Exercises = []models.Exercise{}
	return gyma, nil
}

// End sets the departure of the session's gyma and unbinds it.
func (s *GymaService) End(ctx context.Context, token string) (*models.Gyma, error) {
	sess, gyma, err := s.current(ctx, token)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "gyma.end", attribute.Int64("gyma.id", int64(gyma.ID)))
	defer span.End()

	if !gyma.InProgress() {
		err := models.NewConflictError("Gyma already finished").WithReason(models.ReasonGymaFinished)
		span.SetError(err)
		return nil, err
	}
	leaving := s.now()
	if leaving.Before(gyma.TimeOfArrival) {
		err := models.NewValidationError("time_of_leaving cannot be before time_of_arrival")
		span.SetError(err)
		return nil, err
	}
	if err := s.gymas.SetDeparture(ctx, gyma.ID, leaving); err != nil {
		span.SetError(err)
		return nil, err
	}
	gyma.TimeOfLeaving = &leaving

	if err := s.sessions.ClearGymaID(ctx, token); err != nil {
		return nil, err
	}

	event := events.New(events.TypeGymaCompleted, sess.UserID, sess.UserID)
	event.GymaID = gyma.ID
	publish(ctx, s.publisher, event)
	return gyma, nil
}

// AddExercise appends an exercise to the session's gyma.
func (s *GymaService) AddExercise(ctx context.Context, token string, input ExerciseInput) (*models.Exercise, error) {
	if err := validation.Struct(input); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := input.checkMeasures(); err != nil {
		return nil, err
	}

	_, gyma, err := s.current(ctx, token)
	if err != nil {
		return nil, err
	}
	if !gyma.InProgress() {
		return nil, models.NewConflictError("Gyma already finished").WithReason(models.ReasonGymaFinished)
	}

	exercise := &models.Exercise{
		GymaID:      gyma.ID,
		Name:        input.Name,
		Type:        models.ExerciseType(input.Type),
		Count:       input.Count,
		Sets:        input.Sets,
		Weight:      input.Weight,
		Minutes:     input.Minutes,
		Km:          input.Km,
		Level:       input.Level,
		Description: input.Description,
	}
	if err := s.gymas.AddExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// Delete removes one of the caller's gymas with its exercises.
func (s *GymaService) Delete(ctx context.Context, callerID, gymaID uint) error {
	gyma, err := s.gymas.GetByID(ctx, gymaID)
	if err != nil {
		return err
	}
	if gyma.UserID != callerID {
		return models.NewForbiddenError("Gyma can only be altered by its owner").WithReason(models.ReasonNotAuthorized)
	}
	return s.gymas.Delete(ctx, gymaID)
}

// current loads the gyma bound to the session and checks ownership.
func (s *GymaService) current(ctx context.Context, token string) (*session.Session, *models.Gyma, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if sess.GymaID == 0 {
		return nil, nil, &models.AppError{
			Code:    models.CodeNotFound,
			Reason:  models.ReasonGymaNotStarted,
			Message: "No gyma in progress",
		}
	}
	gyma, err := s.gymas.GetByID(ctx, sess.GymaID)
	if err != nil {
		return nil, nil, err
	}
	if gyma.UserID != sess.UserID {
		return nil, nil, models.NewForbiddenError(fmt.Sprintf("Gyma %d can only be altered by its owner", gyma.ID)).WithReason(models.ReasonNotAuthorized)
	}
	return sess, gyma, nil
}
