// Command main runs the database seeder.
package main

import (
	"flag"
	"log"

	"refugio/internal/config"
	"refugio/internal/database"
	"refugio/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numAnimales := flag.Int("animales", 12, "Number of animals to create")
	numNoticias := flag.Int("noticias", 8, "Number of news posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumAnimales: *numAnimales,
		NumNoticias: *numNoticias,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
