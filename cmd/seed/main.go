// Command main runs the database seeder for Gyma.
package main

import (
	"context"
	"flag"
	"log"

	"gyma/internal/config"
	"gyma/internal/database"
	"gyma/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 30, "Number of users to create")
	gymasPerUser := flag.Int("gymas", 5, "Completed gymas per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 42, "Faker seed; the same seed yields the same data")
	flag.Parse()

	log.Printf("Target: %d users, %d gymas each, clean=%v", *numUsers, *gymasPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	res, err := seed.NewSeeder(db, *randSeed).Run(context.Background(), seed.Options{
		NumUsers:     *numUsers,
		GymasPerUser: *gymasPerUser,
		ShouldClean:  *shouldClean,
		Seed:         *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d friendships, %d gymas", res.Users, res.Friendships, res.Gymas)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
