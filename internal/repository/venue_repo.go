package repository

import (
	"context"
	"fmt"
	"strings"

	"courtbook/internal/domain"

	"gorm.io/gorm"
)

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// GetByID fetches a venue with its vendor and active courts.
func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	var v domain.Venue
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Courts", "is_active = ?", true).
		First(&v, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *VenueRepository) GetCourt(ctx context.Context, id int64) (*domain.Court, error) {
	var c domain.Court
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *VenueRepository) VendorBySlug(ctx context.Context, slug string) (*domain.Vendor, error) {
	var v domain.Vendor
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *VenueRepository) ListByVendor(ctx context.Context, vendorID int64) ([]domain.Venue, error) {
	var rows []domain.Venue
	err := r.db.WithContext(ctx).
		Preload("Courts", "is_active = ?", true).
		Where("vendor_id = ?", vendorID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return rows, nil
}

func (r *VenueRepository) CreateVendor(ctx context.Context, v *domain.Vendor) error {
	v.Slug = strings.ToLower(strings.TrimSpace(v.Slug))
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VenueRepository) CreateVenue(ctx context.Context, v *domain.Venue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VenueRepository) CreateCourt(ctx context.Context, c *domain.Court) error {
	return r.db.WithContext(ctx).Create(c).Error
}
