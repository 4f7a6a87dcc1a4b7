package repository

import (
	"context"
	"fmt"
	"time"

	"courtbook/internal/domain"

	"gorm.io/gorm"
)

type ConflictRepository struct {
	db *gorm.DB
}

func NewConflictRepository(db *gorm.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

func (r *ConflictRepository) Create(ctx context.Context, c *domain.Conflict) error {
	c.StartTime = c.StartTime.UTC()
	c.EndTime = c.EndTime.UTC()
	if c.Status == "" {
		c.Status = domain.ConflictActive
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create conflict: %w", err)
	}
	return nil
}

func (r *ConflictRepository) GetByID(ctx context.Context, id int64) (*domain.Conflict, error) {
	var c domain.Conflict
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ConflictRepository) ListByVenue(ctx context.Context, venueID int64, activeOnly bool) ([]domain.Conflict, error) {
	q := r.db.WithContext(ctx).Where("venue_id = ?", venueID)
	if activeOnly {
		q = q.Where("status = ?", domain.ConflictActive)
	}

	var rows []domain.Conflict
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return rows, nil
}

func (r *ConflictRepository) Deactivate(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Conflict{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.ConflictInactive,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return fmt.Errorf("deactivate conflict: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
