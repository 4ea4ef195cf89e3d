package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gyma/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	GymasPerUser int
	ShouldClean  bool
	Seed         int64
}

// Result counts what a run created.
type Result struct {
	Users       int
	Friendships int
	Gymas       int
}

// Seeder fills the database with a small social graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	now     func() time.Time
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, seed), now: time.Now}
}

// ClearAll removes every row of every application table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.Exercise{}, &models.Gyma{}, &models.Friendship{},
		&models.Person{}, &models.UserVerification{}, &models.User{},
	}
	for _, table := range tables {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	return nil
}

// Run creates users with profiles, connects neighbours in every friendship
// state and records completed gymas for each person.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return res, err
		}
	}

	shares := []models.SharePreference{models.SharePub, models.SharePub, models.ShareGymbros, models.ShareSolo}
	persons := make([]*models.Person, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return res, err
		}
		person, err := s.factory.CreatePerson(ctx, user, shares[i%len(shares)])
		if err != nil {
			return res, err
		}
		persons = append(persons, person)
		res.Users++
	}

	// Ring of neighbours: i-(i+1) accepted, i-(i+2) pending, every fifth i-(i+3) blocked.
	for i, p := range persons {
		links := []struct {
			offset int
			status models.FriendshipStatus
		}{
			{1, models.FriendshipStatusAccepted},
			{2, models.FriendshipStatusPending},
		}
		if i%5 == 0 {
			links = append(links, struct {
				offset int
				status models.FriendshipStatus
			}{3, models.FriendshipStatusBlocked})
		}
		for _, link := range links {
			j := (i + link.offset) % len(persons)
			if j == i {
				continue
			}
			if _, err := s.factory.Connect(ctx, p, persons[j], link.status); err != nil {
				if models.IsCode(err, models.CodeConflict) {
					continue
				}
				return res, err
			}
			res.Friendships++
		}
	}

	base := s.now().Add(-time.Duration(opts.GymasPerUser+1) * 24 * time.Hour)
	for _, p := range persons {
		for d := 0; d < opts.GymasPerUser; d++ {
			arrival := base.Add(time.Duration(d)*24*time.Hour + time.Duration(s.factory.faker.Number(6, 20))*time.Hour)
			if _, err := s.factory.CreateCompletedGyma(ctx, p, arrival); err != nil {
				return res, err
			}
			res.Gymas++
		}
	}

	slog.InfoContext(ctx, "seeding finished", "users", res.Users, "friendships", res.Friendships, "gymas", res.Gymas)
	return res, nil
}
