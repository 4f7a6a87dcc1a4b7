// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"courtbook/internal/database"
	"courtbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:courtbook_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture is one vendor with one venue and two courts, plus a second vendor.
type Fixture struct {
	Vendor      domain.Vendor
	Venue       domain.Venue
	CourtA      domain.Court
	CourtB      domain.Court
	OtherVendor domain.Vendor
	OtherVenue  domain.Venue
	OtherCourt  domain.Court
}

func Seed(t *testing.T, db *gorm.DB, timezone string) Fixture {
	t.Helper()
	f := Fixture{
		Vendor:      domain.Vendor{Slug: "acme", Name: "Acme Sports"},
		OtherVendor: domain.Vendor{Slug: "rival", Name: "Rival Arena"},
	}
	mustCreate(t, db, &f.Vendor)
	mustCreate(t, db, &f.OtherVendor)

	f.Venue = domain.Venue{
		VendorID:     f.Vendor.ID,
		Name:         "Acme Center",
		Timezone:     timezone,
		CurrencyCode: "INR",
		OpenTime:     "06:00",
		CloseTime:    "23:00",
	}
	mustCreate(t, db, &f.Venue)
	f.OtherVenue = domain.Venue{
		VendorID:     f.OtherVendor.ID,
		Name:         "Rival Hall",
		Timezone:     "UTC",
		CurrencyCode: "USD",
		OpenTime:     "08:00",
		CloseTime:    "20:00",
	}
	mustCreate(t, db, &f.OtherVenue)

	f.CourtA = domain.Court{VenueID: f.Venue.ID, Name: "Court A", PricePerHour: 500, IsActive: true}
	f.CourtB = domain.Court{VenueID: f.Venue.ID, Name: "Court B", PricePerHour: 700, IsActive: true}
	f.OtherCourt = domain.Court{VenueID: f.OtherVenue.ID, Name: "Main", PricePerHour: 40, IsActive: true}
	mustCreate(t, db, &f.CourtA)
	mustCreate(t, db, &f.CourtB)
	mustCreate(t, db, &f.OtherCourt)

	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to create %T: %v", v, err)
	}
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
