package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/validation"
)

// PersonInput is the editable part of a profile.
type PersonInput struct {
	FirstName   string `json:"first_name" validate:"required,max=64"`
	LastName    string `json:"last_name" validate:"required,max=64"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Sex         string `json:"sex" validate:"omitempty,oneof=m f o"`
	City        string `json:"city" validate:"max=128"`
	ProfileText string `json:"profile_text" validate:"max=1024"`
	GymaShare   string `json:"gyma_share" validate:"omitempty,oneof=solo gymbros pub"`
}

// PersonService creates and edits the caller's own profile.
type PersonService struct {
	persons repository.PersonRepository
}

// NewPersonService returns a new PersonService.
func NewPersonService(persons repository.PersonRepository) *PersonService {
	return &PersonService{persons: persons}
}

// Upsert creates the caller's profile on first use and edits it afterwards.
// The slug is assigned once, at creation.
func (s *PersonService) Upsert(ctx context.Context, callerID uint, input PersonInput) (*models.Person, bool, error) {
	if err := validation.Struct(input); err != nil {
		return nil, false, models.NewValidationError(err.Error())
	}

	person, err := s.persons.GetByID(ctx, callerID)
	switch {
	case err == nil:
		if err := applyPersonInput(person, input); err != nil {
			return nil, false, err
		}
		if err := s.persons.Update(ctx, person); err != nil {
			return nil, false, err
		}
		return person, false, nil
	case !models.IsCode(err, models.CodeNotFound):
		return nil, false, err
	}

	person = &models.Person{ID: callerID, GymaShare: models.SharePub}
	if err := applyPersonInput(person, input); err != nil {
		return nil, false, err
	}
	slug, err := s.uniqueSlug(ctx, input.FirstName, input.LastName)
	if err != nil {
		return nil, false, err
	}
	person.ProfileURL = slug
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, false, err
	}
	return person, true, nil
}

func applyPersonInput(person *models.Person, input PersonInput) error {
	person.FirstName = strings.TrimSpace(input.FirstName)
	person.LastName = strings.TrimSpace(input.LastName)
	person.Sex = models.Sex(input.Sex)
	person.City = input.City
	person.ProfileText = input.ProfileText
	if input.GymaShare != "" {
		person.GymaShare = models.SharePreference(input.GymaShare)
	}

	person.DateOfBirth = nil
	if input.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			return models.NewValidationError("date_of_birth must match 2006-01-02")
		}
		if dob.After(time.Now()) {
			return models.NewValidationError("date_of_birth cannot be in the future")
		}
		person.DateOfBirth = &dob
	}
	return nil
}

// slugBase lowercases first+last, keeps letters and digits, and leaves room
// for a two digit counter.
func slugBase(first, last string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(first + last) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "gymbro"
	}
	maxBase := models.ProfileURLMaxLen - len(strconv.Itoa(models.ProfileURLMaxLen))
	if len(base) > maxBase {
		base = base[:maxBase]
	}
	return base
}

// uniqueSlug returns base, then base1, base2, ... until one is free. The
// counter is trimmed so the slug never exceeds the column width.
func (s *PersonService) uniqueSlug(ctx context.Context, first, last string) (string, error) {
	base := slugBase(first, last)
	candidate := base
	for n := 1; ; n++ {
		taken, err := s.persons.ProfileURLExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix := strconv.Itoa(n)
		if room := models.ProfileURLMaxLen - len(base); len(suffix) > room {
			return "", models.NewConflictError("No free profile url for this name").WithReason(models.ReasonDuplicate)
		}
		candidate = base + suffix
	}
}
