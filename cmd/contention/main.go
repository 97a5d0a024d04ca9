// Command contention fires concurrent overlapping bookings at a running server
// and checks that every seat ends up with at most one live reservation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"bookd/internal/bookings"
	"bookd/internal/shared/apperrors"
	"bookd/pkg/client"

	"github.com/google/uuid"
)

type attemptResult struct {
	Account  string
	Seats    []string
	Outcome  string
	Duration time.Duration
	Err      error
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	eventID := flag.String("event", "", "event id")
	venueID := flag.String("venue", "", "venue id")
	timingID := flag.String("timing", "", "timing id (optional)")
	accounts := flag.String("accounts", "alice@bookd.dev,bob@bookd.dev", "comma separated seeded accounts")
	password := flag.String("password", "qwerty", "password for every account")
	seats := flag.String("seats", "A1,A2,A3", "seats every client asks for; each client shifts the window by one")
	rounds := flag.Int("rounds", 4, "concurrent requests per account")
	flag.Parse()

	if *eventID == "" || *venueID == "" {
		log.Fatal("❌ -event and -venue are required (run cmd/seed first)")
	}

	fmt.Println("🧪 Starting booking contention test...")
	fmt.Println("=====================================")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.New(*baseURL, nil)

	sessions := make(map[string]*client.Session)
	for _, email := range strings.Split(*accounts, ",") {
		email = strings.TrimSpace(email)
		session, err := api.Login(ctx, email, *password)
		if err != nil {
			log.Fatalf("❌ login failed for %s: %v", email, err)
		}
		sessions[email] = session
		fmt.Printf("✅ Logged in: %s\n", email)
	}

	labels := strings.Split(*seats, ",")
	results := make(chan attemptResult, len(sessions)*(*rounds))
	var wg sync.WaitGroup
	start := make(chan struct{})

	i := 0
	for email, session := range sessions {
		for r := 0; r < *rounds; r++ {
			// Overlapping windows: request k asks for labels[k%n] and labels[(k+1)%n]
			window := []string{labels[i%len(labels)], labels[(i+1)%len(labels)]}
			i++

			wg.Add(1)
			go func(email string, session *client.Session, window []string) {
				defer wg.Done()
				<-start

				req := bookings.CreateBookingRequest{EventID: *eventID, VenueID: *venueID, Seats: window}
				if *timingID != "" {
					req.TimingID = timingID
				}

				began := time.Now()
				_, err := api.CreateBooking(ctx, session, req)
				result := attemptResult{Account: email, Seats: window, Duration: time.Since(began), Err: err}
				switch {
				case err == nil:
					result.Outcome = "BOOKED"
				case errors.Is(err, apperrors.ErrSeatConflict):
					result.Outcome = "CONFLICT"
				default:
					result.Outcome = "ERROR"
				}
				results <- result
			}(email, session, window)
		}
	}

	close(start)
	wg.Wait()
	close(results)

	counts := map[string]int{}
	booked := map[string]int{}
	for result := range results {
		counts[result.Outcome]++
		icon := map[string]string{"BOOKED": "✅", "CONFLICT": "🔒", "ERROR": "❌"}[result.Outcome]
		fmt.Printf("   %s %-8s %-20s %v %v\n", icon, result.Outcome, result.Account, result.Seats, result.Duration)
		if result.Err != nil && result.Outcome == "ERROR" {
			fmt.Printf("      %v\n", result.Err)
		}
		if result.Outcome == "BOOKED" {
			for _, seat := range result.Seats {
				booked[seat]++
			}
		}
	}

	var timing *uuid.UUID
	if *timingID != "" {
		parsed := uuid.MustParse(*timingID)
		timing = &parsed
	}
	availability, err := api.Availability(ctx, uuid.MustParse(*eventID), uuid.MustParse(*venueID), timing)
	if err != nil {
		log.Fatalf("❌ availability check failed: %v", err)
	}

	fmt.Println("\n📊 Summary")
	fmt.Printf("   booked: %d  conflicts: %d  errors: %d\n", counts["BOOKED"], counts["CONFLICT"], counts["ERROR"])
	fmt.Printf("   taken seats reported by server: %v\n", availability.TakenSeats)

	var doubled []string
	for seat, n := range booked {
		if n > 1 {
			doubled = append(doubled, seat)
		}
	}
	sort.Strings(doubled)
	if len(doubled) > 0 {
		log.Fatalf("❌ seats booked more than once: %v", doubled)
	}
	fmt.Println("\n🎉 No seat was granted twice.")
}
