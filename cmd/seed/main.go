package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := connect(ctx)
	defer db.Close(ctx)

	seeder := seed.NewSeeder(db)

	switch command {
	case "dev":
		log.Println("Seeding development database...")
		if err := db.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
		if err := seeder.SeedDev(ctx, 15); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		log.Printf("Done. Every account logs in with password %q", seed.DemoPassword)
	case "clean":
		log.Println("Removing all seed data...")
		if err := seeder.Clean(ctx); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		log.Println("Done")
	default:
		fmt.Println("Usage: seed [dev|clean]")
		fmt.Println("  dev   - Seed development database with demo colleges, users and content")
		fmt.Println("  clean - Drop all seeded collections (use with caution)")
		os.Exit(1)
	}
}

func connect(ctx context.Context) *database.MongoDB {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "collegeconnect"
	}

	db, err := database.Connect(ctx, database.Config{URI: uri, Name: name})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}
