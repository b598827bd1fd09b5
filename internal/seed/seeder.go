// Package seed fills the database with demo data for development.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"

	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// DemoPassword is the login password of every seeded account
const DemoPassword = "demoPass123!"

var demoColleges = []models.College{
	{Name: "Ridgefield University", City: "Ridgefield", State: "CA", EmailDomains: []string{"ridgefield.edu"}},
	{Name: "Lakeshore College", City: "Lakeshore", State: "MI", EmailDomains: []string{"lakeshore.edu"}},
	{Name: "Harborview Institute of Technology", City: "Harborview", State: "MA", EmailDomains: []string{"harborview.edu", "hit.edu"}},
}

// Seeder writes demo documents through the repositories
type Seeder struct {
	db       *database.MongoDB
	users    *repository.Users
	items    *repository.Items
	posts    *repository.Posts
	trips    *repository.Trips
	colleges *repository.Colleges
}

// NewSeeder creates a seeder over the given database
func NewSeeder(db *database.MongoDB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:       db,
		users:    repository.NewUsers(db),
		items:    repository.NewItems(db),
		posts:    repository.NewPosts(db),
		trips:    repository.NewTrips(db),
		colleges: repository.NewColleges(db),
	}
}

// SeedDev populates colleges, users, listings, threads and trips
func (s *Seeder) SeedDev(ctx context.Context, usersPerCollege int) error {
	if err := s.seedColleges(ctx); err != nil {
		return err
	}

	for _, college := range demoColleges {
		users, err := s.seedUsers(ctx, college, usersPerCollege)
		if err != nil {
			return err
		}
		if err := s.seedItems(ctx, college.Name, users); err != nil {
			return err
		}
		if err := s.seedPosts(ctx, college.Name, users); err != nil {
			return err
		}
		if err := s.seedTrips(ctx, college.Name, users); err != nil {
			return err
		}
	}
	return nil
}

// Clean drops every seeded collection
func (s *Seeder) Clean(ctx context.Context) error {
	for _, name := range []string{
		database.ColUsers, database.ColMessages, database.ColItems,
		database.ColPosts, database.ColTrips, database.ColNotifications,
		database.ColReports, database.ColColleges, database.ColContacts,
	} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

func (s *Seeder) seedColleges(ctx context.Context) error {
	count, err := s.colleges.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i := range demoColleges {
		if err := s.colleges.Create(ctx, &demoColleges[i]); err != nil {
			return fmt.Errorf("seed college %s: %w", demoColleges[i].Name, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, college models.College, count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	domain := college.EmailDomains[0]
	users := make([]models.User, 0, count)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
		email := fmt.Sprintf("%s%d@%s", local, i, domain)

		u := models.User{
			Name:         name,
			Email:        email,
			College:      college.Name,
			CollegeRef:   &college.ID,
			Role:         models.RoleUser,
			PasswordHash: string(hash),
			Verification: models.Verification{
				Status:     models.VerificationVerified,
				Method:     models.MethodCollegeEmail,
				VerifiedAt: &now,
				Proof:      []string{},
			},
		}
		// First account of each college moderates it
		if i == 0 {
			u.Role = models.RoleModerator
		}

		if _, err := s.users.Create(ctx, &u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedItems(ctx context.Context, college string, users []models.User) error {
	for _, u := range users {
		n := gofakeit.Number(0, 3)
		for i := 0; i < n; i++ {
			till := gofakeit.DateRange(time.Now().AddDate(0, 0, 3), time.Now().AddDate(0, 1, 0))
			item := models.Item{
				Seller:      u.ID,
				College:     college,
				Title:       gofakeit.ProductName(),
				Description: gofakeit.ProductDescription(),
				Price:       gofakeit.Price(5, 400),
				ValidTill:   &till,
			}
			if err := s.items.Create(ctx, &item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(ctx context.Context, college string, users []models.User) error {
	for _, u := range users {
		n := gofakeit.Number(0, 2)
		for i := 0; i < n; i++ {
			post := models.Post{
				Author:  u.ID,
				College: college,
				Title:   gofakeit.Sentence(6),
				Body:    gofakeit.Paragraph(1, 3, 10, " "),
				Tags:    []string{gofakeit.Word(), gofakeit.Word()},
			}
			if err := s.posts.Create(ctx, &post); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedTrips(ctx context.Context, college string, users []models.User) error {
	for i, u := range users {
		if i%3 != 0 {
			continue
		}
		departAt := gofakeit.DateRange(time.Now().AddDate(0, 0, 1), time.Now().AddDate(0, 0, 21))
		trip := models.Trip{
			Organizer:   u.ID,
			College:     college,
			From:        "Campus",
			To:          gofakeit.City(),
			DepartAt:    departAt,
			Capacity:    gofakeit.Number(2, 5),
			Description: gofakeit.Sentence(8),
			ValidTill:   departAt,
		}
		if err := s.trips.Create(ctx, &trip); err != nil {
			return err
		}
	}
	return nil
}
