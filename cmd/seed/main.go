package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookd/internal/companies"
	"bookd/internal/events"
	"bookd/internal/migrations"
	"bookd/internal/shared/config"
	"bookd/internal/shared/database"
	"bookd/internal/users"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting BOOKD Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := migrations.Migrate(db.PostgreSQL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Log in with any seeded email and password \"qwerty\".")
}

// CleanDatabase truncates all tables, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"wishlist_items",
		"seat_claims",
		"seat_holds",
		"reservations",
		"timings",
		"venues",
		"events",
		"companies",
		"users",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds users, a verified organiser company and a small catalog
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedCompany(userIDs["organiser"]); err != nil {
		return fmt.Errorf("failed to seed company: %w", err)
	}

	if err := s.SeedEvents(userIDs["organiser"]); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	// Drop cached catalog pages so browsing sees the fresh rows
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedUsers creates an admin, an organiser and two audience members
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key      string
		username string
		fullName string
		email    string
		role     users.Role
	}{
		{"admin", "admin", "Admin User", "admin@bookd.dev", users.RoleAdmin},
		{"organiser", "globe", "Globe Productions", "organiser@bookd.dev", users.RoleOrganiser},
		{"audience1", "alice", "Alice Rao", "alice@bookd.dev", users.RoleAudience},
		{"audience2", "bob", "Bob Mehta", "bob@bookd.dev", users.RoleAudience},
	}

	for _, userData := range usersData {
		user := users.User{
			Username: userData.username,
			FullName: userData.fullName,
			Email:    userData.email,
			Password: string(hashedPassword),
			Role:     userData.role,
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedCompany registers and verifies the organiser's company so it can publish events
func (s *Seeder) SeedCompany(organiserID uuid.UUID) error {
	fmt.Println("  🏢 Seeding company...")

	now := time.Now().UTC()
	company := companies.Company{
		OrganiserID:   organiserID,
		BusinessID:    "GLOBE-PROD-001",
		PhoneNumber:   "+919800000001",
		GSTNumber:     "27AAPFU0939F1ZV",
		AadharNumber:  "123412341234",
		AccountNumber: "000111222333",
		IFSCCode:      "HDFC0001234",
		Verified:      true,
		VerifiedAt:    &now,
	}
	if err := s.db.PostgreSQL.Create(&company).Error; err != nil {
		return err
	}

	fmt.Printf("    ✅ Created verified company: %s\n", company.BusinessID)
	return nil
}

// SeedEvents creates events with venues and showtimes
func (s *Seeder) SeedEvents(organiserID uuid.UUID) error {
	fmt.Println("  🎭 Seeding events...")

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)

	eventsData := []struct {
		name, category, description string
		location                    string
		price                       string
		seats                       int
		timings                     [][2]string
	}{
		{"Hamlet", "theatre", "Shakespeare's tragedy in a new staging.", "Prithvi Theatre, Mumbai", "450.00", 120, [][2]string{{"15:00", "18:00"}, {"19:30", "22:30"}}},
		{"Coldplay: Music of the Spheres", "concert", "World tour, India leg.", "DY Patil Stadium, Navi Mumbai", "4500.00", 500, [][2]string{{"18:00", "22:00"}}},
		{"Stand-up Night", "comedy", "Five comics, one mic.", "The Habitat, Mumbai", "799.00", 80, nil},
	}

	for _, data := range eventsData {
		event := events.Event{
			Name:        data.name,
			Category:    data.category,
			Description: data.description,
			OrganiserID: organiserID,
		}
		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create event %s: %w", data.name, err)
		}

		venue := events.Venue{
			EventID:     event.ID,
			Location:    data.location,
			StartDate:   start,
			EndDate:     start.Add(3 * 24 * time.Hour),
			TicketPrice: decimal.RequireFromString(data.price),
			TotalSeats:  data.seats,
		}
		if err := s.db.PostgreSQL.Create(&venue).Error; err != nil {
			return fmt.Errorf("failed to create venue for %s: %w", data.name, err)
		}

		for _, slot := range data.timings {
			timing := events.Timing{VenueID: venue.ID, StartTime: slot[0], EndTime: slot[1], TotalSeats: data.seats}
			if err := s.db.PostgreSQL.Create(&timing).Error; err != nil {
				return fmt.Errorf("failed to create timing for %s: %w", data.name, err)
			}
		}

		fmt.Printf("    ✅ Created event: %s at %s (%d showtimes)\n", event.Name, venue.Location, len(data.timings))
	}

	return nil
}
