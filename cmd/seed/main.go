package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/domain"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/venuetime"
	"courtbook/internal/repository"

	"gorm.io/gorm"
)

type venueSeed struct {
	name, timezone, currency, city, country string
	courts                                  []string
	price                                   float64
}

type vendorSeed struct {
	slug, name string
	venues     []venueSeed
}

var seeds = []vendorSeed{
	{
		slug: "smashpoint", name: "SmashPoint Badminton",
		venues: []venueSeed{
			{name: "SmashPoint Indiranagar", timezone: "Asia/Kolkata", currency: "INR", city: "Bengaluru", country: "IN",
				courts: []string{"Court 1", "Court 2", "Court 3"}, price: 600},
			{name: "SmashPoint Koramangala", timezone: "Asia/Kolkata", currency: "INR", city: "Bengaluru", country: "IN",
				courts: []string{"Court A", "Court B"}, price: 550},
		},
	},
	{
		slug: "hudsonpadel", name: "Hudson Padel Club",
		venues: []venueSeed{
			{name: "Hudson Padel Chelsea", timezone: "America/New_York", currency: "USD", city: "New York", country: "US",
				courts: []string{"Glass 1", "Glass 2"}, price: 80},
		},
	},
}

var customers = []string{"Aarav", "Diya", "Kabir", "Meera", "Rohan", "Sara", "Liam", "Emma", "Noah", "Ava"}

func main() {
	log := logger.Setup("local")

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connection failed", logger.Err(err))
		os.Exit(1)
	}
	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("migrate failed", logger.Err(err))
		os.Exit(1)
	}

	log.Info("cleaning old data")
	for _, table := range []string{"bookings", "conflicts", "courts", "venues", "vendors"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Error("cleanup failed", slog.String("table", table), logger.Err(err))
			os.Exit(1)
		}
	}

	tokens := jwt.New(cfg.JWTSecret, 30*24*time.Hour)
	rng := rand.New(rand.NewSource(42))
	venues := repository.NewVenueRepository(db)

	for _, vs := range seeds {
		vendor := &domain.Vendor{Slug: vs.slug, Name: vs.name}
		if err := venues.CreateVendor(ctx, vendor); err != nil {
			log.Error("create vendor failed", slog.String("slug", vs.slug), logger.Err(err))
			os.Exit(1)
		}

		for _, s := range vs.venues {
			n, err := seedVenue(ctx, db, venues, vendor, s, rng)
			if err != nil {
				log.Error("seed venue failed", slog.String("venue", s.name), logger.Err(err))
				os.Exit(1)
			}
			log.Info("venue seeded", slog.String("vendor", vendor.Slug), slog.String("venue", s.name), slog.Int("bookings", n))
		}

		token, err := tokens.GenerateToken(vendor.ID, "vendor")
		if err != nil {
			log.Error("token generation failed", logger.Err(err))
			os.Exit(1)
		}
		fmt.Printf("%s (vendor %d)\n  host:  %s.%s\n  token: %s\n\n", vendor.Name, vendor.ID, vendor.Slug, cfg.TenantBaseDomain, token)
	}

	log.Info("seed completed")
}

// seedVenue creates the venue and its courts, a week of bookings starting
// today in the venue's zone, and a weekly maintenance blackout.
func seedVenue(ctx context.Context, db *gorm.DB, venues *repository.VenueRepository, vendor *domain.Vendor, s venueSeed, rng *rand.Rand) (int, error) {
	venue := &domain.Venue{
		VendorID:     vendor.ID,
		Name:         s.name,
		Timezone:     s.timezone,
		CurrencyCode: s.currency,
		City:         s.city,
		Country:      s.country,
		OpenTime:     "06:00",
		CloseTime:    "23:00",
	}
	if err := venues.CreateVenue(ctx, venue); err != nil {
		return 0, err
	}

	courts := make([]domain.Court, 0, len(s.courts))
	for _, name := range s.courts {
		c := domain.Court{VenueID: venue.ID, Name: name, PricePerHour: s.price, IsActive: true}
		if err := venues.CreateCourt(ctx, &c); err != nil {
			return 0, err
		}
		courts = append(courts, c)
	}

	statuses := []domain.BookingStatus{
		domain.BookingConfirmed, domain.BookingConfirmed, domain.BookingConfirmed,
		domain.BookingPendingPayment, domain.BookingCancelled,
	}
	types := []domain.BookingType{domain.BookingSimple, domain.BookingSimple, domain.BookingMatch, domain.BookingDirect}

	today := venuetime.LocalDate(time.Now(), s.timezone)
	day, _ := time.Parse(venuetime.DateLayout, today)

	var bookings []domain.Booking
	for d := 0; d < 7; d++ {
		date := day.AddDate(0, 0, d).Format(venuetime.DateLayout)
		for i := range courts {
			// Walk the day in non-overlapping steps so seeded data never double-books.
			for hour := 6 + rng.Intn(3); hour < 22; hour += 2 + rng.Intn(3) {
				dur := 1 + rng.Intn(2)
				if hour+dur > 23 {
					break
				}
				start, err := venuetime.FromLocal(fmt.Sprintf("%sT%02d:00", date, hour), s.timezone)
				if err != nil {
					return 0, err
				}
				b := domain.Booking{
					VenueID:      venue.ID,
					VendorID:     vendor.ID,
					CourtID:      &courts[i].ID,
					StartTime:    start,
					EndTime:      start.Add(time.Duration(dur) * time.Hour),
					Duration:     dur,
					TotalAmount:  float64(dur) * s.price,
					Status:       statuses[rng.Intn(len(statuses))],
					BookingType:  types[rng.Intn(len(types))],
					CustomerName: customers[rng.Intn(len(customers))],
				}
				if b.Status == domain.BookingCancelled {
					now := time.Now().UTC()
					b.CancelledAt = &now
					b.CancellationReason = "customer request"
				}
				bookings = append(bookings, b)
			}
		}
	}
	if len(bookings) > 0 {
		if err := db.WithContext(ctx).CreateInBatches(bookings, 100).Error; err != nil {
			return 0, err
		}
	}

	// Monday 06:00-07:00 maintenance on the first court.
	start, err := venuetime.FromLocal(fmt.Sprintf("%sT06:00", nextMonday(day)), s.timezone)
	if err != nil {
		return 0, err
	}
	conflict := &domain.Conflict{
		VenueID:    venue.ID,
		CourtID:    &courts[0].ID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     domain.ConflictActive,
		Reason:     "weekly maintenance",
		Recurrence: "FREQ=WEEKLY;BYDAY=MO",
	}
	if err := repository.NewConflictRepository(db).Create(ctx, conflict); err != nil {
		return 0, err
	}
	return len(bookings), nil
}

func nextMonday(d time.Time) string {
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(venuetime.DateLayout)
}
